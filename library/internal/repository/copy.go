package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/bookdesk/library-service/library/internal/errs"
	"github.com/bookdesk/library-service/library/internal/model"
)

const copyColumns = "id, book_id, copy_number, status, created_at, updated_at"

func (r *repository) CreateCopy(ctx context.Context, bookID, copyNumber string) (model.BookCopy, error) {
	var bookExists bool
	if err := r.db.QueryRow(ctx,
		`select exists(select 1 from books where id = $1)`, bookID).Scan(&bookExists); err != nil {
		return model.BookCopy{}, err
	}
	if !bookExists {
		return model.BookCopy{}, errors.Wrap(errs.ErrNotFound, "book")
	}

	query, args, err := qb.Insert(bookCopiesTableName).
		Columns("id", "book_id", "copy_number", "status").
		Values(uuid.NewString(), bookID, copyNumber, model.CopyStatusAvailable).
		Suffix("returning " + copyColumns).
		ToSql()
	if err != nil {
		return model.BookCopy{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.BookCopy{}, err
	}
	cp, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.BookCopy])
	if err != nil {
		if isUniqueViolation(err) {
			return model.BookCopy{}, errors.Wrap(errs.ErrConflict, "copy number already exists for this book")
		}
		if isForeignKeyViolation(err) {
			return model.BookCopy{}, errors.Wrap(errs.ErrNotFound, "book")
		}
		return model.BookCopy{}, err
	}
	return cp, nil
}

func (r *repository) ListAvailableCopies(ctx context.Context, page, limit int) (model.ListAvailableCopies, error) {
	listQ := qb.Select("c.id as copy_id", "c.book_id", "b.title as book_title", "b.author", "c.copy_number").
		From(bookCopiesTableName+" c").
		Join(booksTableName+" b on b.id = c.book_id").
		Where(sq.Eq{"c.status": model.CopyStatusAvailable}).
		OrderBy("b.title", "c.copy_number").
		Limit(uint64(limit)).
		Offset(pageOffset(page, limit))
	countQ := qb.Select("count(*)").
		From(bookCopiesTableName).
		Where(sq.Eq{"status": model.CopyStatusAvailable})

	var (
		copies []model.AvailableCopy
		total  int
	)
	gg, gctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		query, args, err := listQ.ToSql()
		if err != nil {
			return err
		}
		rows, err := r.db.Query(gctx, query, args...)
		if err != nil {
			return err
		}
		copies, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.AvailableCopy])
		return err
	})
	gg.Go(func() error {
		query, args, err := countQ.ToSql()
		if err != nil {
			return err
		}
		return r.db.QueryRow(gctx, query, args...).Scan(&total)
	})
	if err := gg.Wait(); err != nil {
		return model.ListAvailableCopies{}, err
	}

	return model.ListAvailableCopies{
		Paging: model.Paging{
			Page:          page,
			PageSize:      limit,
			TotalElements: total,
		},
		Items: copies,
	}, nil
}

func (r *repository) ListCopiesByBook(ctx context.Context, bookID string, page, limit int) (model.ListCopies, error) {
	var bookExists bool
	if err := r.db.QueryRow(ctx,
		`select exists(select 1 from books where id = $1)`, bookID).Scan(&bookExists); err != nil {
		return model.ListCopies{}, err
	}
	if !bookExists {
		return model.ListCopies{}, errors.Wrap(errs.ErrNotFound, "book")
	}

	listQ := qb.Select(copyColumns).
		From(bookCopiesTableName).
		Where(sq.Eq{"book_id": bookID}).
		OrderBy("copy_number").
		Limit(uint64(limit)).
		Offset(pageOffset(page, limit))
	countQ := qb.Select("count(*)").
		From(bookCopiesTableName).
		Where(sq.Eq{"book_id": bookID})

	var (
		copies []model.BookCopy
		total  int
	)
	gg, gctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		query, args, err := listQ.ToSql()
		if err != nil {
			return err
		}
		rows, err := r.db.Query(gctx, query, args...)
		if err != nil {
			return err
		}
		copies, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.BookCopy])
		return err
	})
	gg.Go(func() error {
		query, args, err := countQ.ToSql()
		if err != nil {
			return err
		}
		return r.db.QueryRow(gctx, query, args...).Scan(&total)
	})
	if err := gg.Wait(); err != nil {
		return model.ListCopies{}, err
	}

	// a book with zero copies yields an empty list, not a not-found
	return model.ListCopies{
		Paging: model.Paging{
			Page:          page,
			PageSize:      limit,
			TotalElements: total,
		},
		Items: copies,
	}, nil
}
