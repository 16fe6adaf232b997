package handler

import (
	"context"

	"github.com/bookdesk/library-service/library/internal/model"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go -package=service_mocks

type LibraryService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, id string) (model.BookWithCopies, error)
	ListBooks(ctx context.Context, filter model.BookFilter, page, limit int) (model.ListBooks, error)

	CreateMember(ctx context.Context, req model.CreateMemberRequest) (model.Member, error)
	UpdateMember(ctx context.Context, id string, req model.UpdateMemberRequest) (model.Member, error)
	GetMember(ctx context.Context, id string) (model.Member, error)
	ListMembers(ctx context.Context, filter model.MemberFilter, page, limit int) (model.ListMembers, error)

	CreateCopy(ctx context.Context, req model.CreateCopyRequest) (model.BookCopy, error)
	ListAvailableCopies(ctx context.Context, page, limit int) (model.ListAvailableCopies, error)
	ListCopiesByBook(ctx context.Context, bookID string, page, limit int) (model.ListCopies, error)

	BorrowBook(ctx context.Context, req model.BorrowRequest) (model.Borrow, error)
	ReturnBook(ctx context.Context, req model.ReturnRequest) (model.Borrow, error)
	ListBorrowings(ctx context.Context, filter model.BorrowFilter, page, limit int) (model.ListBorrows, error)
}

type AuthService interface {
	Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error)
}
