package service_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookdesk/library-service/library/internal/errs"
	"github.com/bookdesk/library-service/library/internal/model"
	repo_mocks "github.com/bookdesk/library-service/library/internal/repository/mocks"
	"github.com/bookdesk/library-service/library/internal/service"
)

const (
	copyID   = "9b4f24c2-3f8e-4f0d-9a45-1f1f9f1fb1aa"
	memberID = "83575e12-7ce0-48ee-9931-51919ff3c9ee"
	bookID   = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"
)

func newService(t *testing.T) (*service.Service, *repo_mocks.MockRepository) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	repo := repo_mocks.NewMockRepository(c)
	return service.NewService(repo, nil, zap.NewNop()), repo
}

func TestService_BorrowBook(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		svc, repo := newService(t)
		want := model.Borrow{ID: "b1", CopyID: copyID, MemberID: memberID, Status: model.BorrowStatusActive}
		repo.EXPECT().
			BorrowCopy(context.Background(), copyID, memberID).
			Return(want, nil)

		got, err := svc.BorrowBook(context.Background(), model.BorrowRequest{CopyID: copyID, MemberID: memberID})
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("malformed copy id", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		_, err := svc.BorrowBook(context.Background(), model.BorrowRequest{CopyID: "not-a-uuid", MemberID: memberID})
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("malformed member id", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		_, err := svc.BorrowBook(context.Background(), model.BorrowRequest{CopyID: copyID, MemberID: "42"})
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("copy already borrowed", func(t *testing.T) {
		t.Parallel()
		svc, repo := newService(t)
		repo.EXPECT().
			BorrowCopy(context.Background(), copyID, memberID).
			Return(model.Borrow{}, errors.Wrap(errs.ErrConflict, "copy is not available"))

		_, err := svc.BorrowBook(context.Background(), model.BorrowRequest{CopyID: copyID, MemberID: memberID})
		require.ErrorIs(t, err, errs.ErrConflict)
	})
}

func TestService_ReturnBook(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		svc, repo := newService(t)
		want := model.Borrow{ID: "b1", CopyID: copyID, MemberID: memberID, Status: model.BorrowStatusReturned}
		repo.EXPECT().
			ReturnCopy(context.Background(), copyID).
			Return(want, nil)

		got, err := svc.ReturnBook(context.Background(), model.ReturnRequest{CopyID: copyID})
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("no active borrow", func(t *testing.T) {
		t.Parallel()
		svc, repo := newService(t)
		repo.EXPECT().
			ReturnCopy(context.Background(), copyID).
			Return(model.Borrow{}, errors.Wrap(errs.ErrConflict, "no active borrow for this copy"))

		_, err := svc.ReturnBook(context.Background(), model.ReturnRequest{CopyID: copyID})
		require.ErrorIs(t, err, errs.ErrConflict)
	})

	t.Run("malformed copy id", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		_, err := svc.ReturnBook(context.Background(), model.ReturnRequest{CopyID: ""})
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestService_GetBook(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		svc, repo := newService(t)
		book := model.Book{ID: bookID, Title: "The Go Programming Language", Author: "Donovan, Kernighan"}
		repo.EXPECT().
			GetBook(context.Background(), bookID).
			Return(book, 3, nil)

		got, err := svc.GetBook(context.Background(), bookID)
		require.NoError(t, err)
		require.Equal(t, model.BookWithCopies{Book: book, CopyCount: 3}, got)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		svc, repo := newService(t)
		repo.EXPECT().
			GetBook(context.Background(), bookID).
			Return(model.Book{}, 0, errs.ErrNotFound)

		_, err := svc.GetBook(context.Background(), bookID)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		_, err := svc.GetBook(context.Background(), "nope")
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestService_ListBooks(t *testing.T) {
	t.Parallel()

	t.Run("clamps pagination and trims query", func(t *testing.T) {
		t.Parallel()
		svc, repo := newService(t)
		repo.EXPECT().
			ListBooks(context.Background(), model.BookFilter{Query: "golang"}, 1, 100).
			Return(model.ListBooks{}, nil)

		_, err := svc.ListBooks(context.Background(), model.BookFilter{Query: "  golang  "}, 0, 500)
		require.NoError(t, err)
	})
}

func TestService_ListBorrowings(t *testing.T) {
	t.Parallel()

	t.Run("member filter must be a uuid", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		_, err := svc.ListBorrowings(context.Background(), model.BorrowFilter{MemberID: "bogus"}, 1, 10)
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("empty member filter passes through", func(t *testing.T) {
		t.Parallel()
		svc, repo := newService(t)
		repo.EXPECT().
			ListBorrowings(context.Background(), model.BorrowFilter{}, 1, 10).
			Return(model.ListBorrows{}, nil)

		_, err := svc.ListBorrowings(context.Background(), model.BorrowFilter{}, 1, 10)
		require.NoError(t, err)
	})
}

func TestService_CreateCopy(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		svc, repo := newService(t)
		want := model.BookCopy{ID: copyID, BookID: bookID, CopyNumber: "A-101", Status: model.CopyStatusAvailable}
		repo.EXPECT().
			CreateCopy(context.Background(), bookID, "A-101").
			Return(want, nil)

		got, err := svc.CreateCopy(context.Background(), model.CreateCopyRequest{BookID: bookID, CopyNumber: "A-101"})
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("duplicate copy number", func(t *testing.T) {
		t.Parallel()
		svc, repo := newService(t)
		repo.EXPECT().
			CreateCopy(context.Background(), bookID, "A-101").
			Return(model.BookCopy{}, errors.Wrap(errs.ErrConflict, "copy number already exists for this book"))

		_, err := svc.CreateCopy(context.Background(), model.CreateCopyRequest{BookID: bookID, CopyNumber: "A-101"})
		require.ErrorIs(t, err, errs.ErrConflict)
	})
}
