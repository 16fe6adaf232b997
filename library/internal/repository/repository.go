package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bookdesk/library-service/library/internal/model"
)

//go:generate mockgen -source=repository.go -destination=mocks/mock.go -package=repo_mocks

type Repository interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, id string) (model.Book, int, error)
	ListBooks(ctx context.Context, filter model.BookFilter, page, limit int) (model.ListBooks, error)

	CreateMember(ctx context.Context, req model.CreateMemberRequest) (model.Member, error)
	UpdateMember(ctx context.Context, id string, req model.UpdateMemberRequest) (model.Member, error)
	GetMember(ctx context.Context, id string) (model.Member, error)
	ListMembers(ctx context.Context, filter model.MemberFilter, page, limit int) (model.ListMembers, error)

	CreateCopy(ctx context.Context, bookID, copyNumber string) (model.BookCopy, error)
	ListAvailableCopies(ctx context.Context, page, limit int) (model.ListAvailableCopies, error)
	ListCopiesByBook(ctx context.Context, bookID string, page, limit int) (model.ListCopies, error)

	BorrowCopy(ctx context.Context, copyID, memberID string) (model.Borrow, error)
	ReturnCopy(ctx context.Context, copyID string) (model.Borrow, error)
	ListBorrowings(ctx context.Context, filter model.BorrowFilter, page, limit int) (model.ListBorrows, error)

	GetStaffByUsername(ctx context.Context, username string) (model.StaffUser, error)
	TouchStaffLogin(ctx context.Context, id string) error
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName      = `books`
	bookCopiesTableName = `book_copies`
	membersTableName    = `members`
	borrowsTableName    = `borrows`
	staffUsersTableName = `staff_users`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

func pageOffset(page, limit int) uint64 {
	return uint64((page - 1) * limit)
}

func likePattern(s string) string {
	return "%" + s + "%"
}
