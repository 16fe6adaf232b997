package model

import (
	"time"
)

type CopyStatus string

const (
	CopyStatusAvailable  CopyStatus = "available"
	CopyStatusCheckedOut CopyStatus = "checked_out"
)

type BorrowStatus string

const (
	BorrowStatusActive   BorrowStatus = "active"
	BorrowStatusReturned BorrowStatus = "returned"
)

type Book struct {
	ID        string     `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Author    string     `json:"author" db:"author"`
	ISBN      *string    `json:"isbn,omitempty" db:"isbn"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

// BookWithCopies is a catalog row with its inventory size.
type BookWithCopies struct {
	Book      `json:",inline"`
	CopyCount int `json:"copyCount"`
}

type BookCopy struct {
	ID         string     `json:"id" db:"id"`
	BookID     string     `json:"bookId" db:"book_id"`
	CopyNumber string     `json:"copyNumber" db:"copy_number"`
	Status     CopyStatus `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

// AvailableCopy is an inventory row joined with its catalog entry.
type AvailableCopy struct {
	CopyID     string `json:"copyId" db:"copy_id"`
	BookID     string `json:"bookId" db:"book_id"`
	BookTitle  string `json:"bookTitle" db:"book_title"`
	Author     string `json:"author" db:"author"`
	CopyNumber string `json:"copyNumber" db:"copy_number"`
}

type Member struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

type Borrow struct {
	ID         string       `json:"id" db:"id"`
	CopyID     string       `json:"copyId" db:"copy_id"`
	MemberID   string       `json:"memberId" db:"member_id"`
	Status     BorrowStatus `json:"status" db:"status"`
	BorrowedAt time.Time    `json:"borrowedAt" db:"borrowed_at"`
	ReturnedAt *time.Time   `json:"returnedAt,omitempty" db:"returned_at"`
}

// BorrowInfo is a lending row joined with member and catalog display fields.
type BorrowInfo struct {
	ID         string       `json:"id" db:"id"`
	CopyID     string       `json:"copyId" db:"copy_id"`
	MemberID   string       `json:"memberId" db:"member_id"`
	Status     BorrowStatus `json:"status" db:"status"`
	BorrowedAt time.Time    `json:"borrowedAt" db:"borrowed_at"`
	ReturnedAt *time.Time   `json:"returnedAt,omitempty" db:"returned_at"`
	CopyNumber string       `json:"copyNumber" db:"copy_number"`
	BookTitle  string       `json:"bookTitle" db:"book_title"`
	MemberName string       `json:"memberName" db:"member_name"`
}

type StaffUser struct {
	ID           string     `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []BookWithCopies `json:"items"`
}

type ListMembers struct {
	Paging `json:",inline"`
	Items  []Member `json:"items"`
}

type ListCopies struct {
	Paging `json:",inline"`
	Items  []BookCopy `json:"items"`
}

type ListAvailableCopies struct {
	Paging `json:",inline"`
	Items  []AvailableCopy `json:"items"`
}

type ListBorrows struct {
	Paging `json:",inline"`
	Items  []BorrowInfo `json:"items"`
}

type CreateBookRequest struct {
	Title  string  `json:"title" validate:"required"`
	Author string  `json:"author" validate:"required"`
	ISBN   *string `json:"isbn,omitempty"`
}

type UpdateBookRequest struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	ISBN   *string `json:"isbn,omitempty"`
}

type BookFilter struct {
	Title  string
	Author string
	ISBN   string
	Query  string
}

type CreateMemberRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type UpdateMemberRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

type MemberFilter struct {
	Name  string
	Email string
	Query string
}

type CreateCopyRequest struct {
	BookID     string `json:"bookId" validate:"required,uuid"`
	CopyNumber string `json:"copyNumber" validate:"required"`
}

type BorrowRequest struct {
	CopyID   string `json:"copyId" validate:"required,uuid"`
	MemberID string `json:"memberId" validate:"required,uuid"`
}

type ReturnRequest struct {
	CopyID string `json:"copyId" validate:"required,uuid"`
}

type BorrowFilter struct {
	MemberID string
	Query    string
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LendingEvent is published to Kafka after a committed borrow/return.
type LendingEvent struct {
	EventType string    `json:"eventType"`
	BorrowID  string    `json:"borrowId"`
	CopyID    string    `json:"copyId"`
	MemberID  string    `json:"memberId"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventBorrowed = "borrowed"
	EventReturned = "returned"
)
