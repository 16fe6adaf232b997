package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bookdesk/library-service/library/internal/errs"
	"github.com/bookdesk/library-service/library/internal/model"
)

const bookColumns = "id, title, author, isbn, created_at, updated_at"

func (r *repository) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("id", "title", "author", "isbn").
		Values(uuid.NewString(), req.Title, req.Author, req.ISBN).
		Suffix("returning " + bookColumns).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) UpdateBook(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error) {
	ub := qb.Update(booksTableName).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("returning " + bookColumns)
	if req.Title != nil {
		ub = ub.Set("title", *req.Title)
	}
	if req.Author != nil {
		ub = ub.Set("author", *req.Author)
	}
	if req.ISBN != nil {
		ub = ub.Set("isbn", *req.ISBN)
	}

	query, args, err := ub.ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errors.Wrap(errs.ErrNotFound, "book")
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) GetBook(ctx context.Context, id string) (model.Book, int, error) {
	query, args, err := qb.Select(bookColumns).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, 0, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, 0, err
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, 0, errors.Wrap(errs.ErrNotFound, "book")
		}
		return model.Book{}, 0, err
	}

	var copyCount int
	if err := r.db.QueryRow(ctx,
		`select count(*) from book_copies where book_id = $1`, id).Scan(&copyCount); err != nil {
		return model.Book{}, 0, err
	}
	return book, copyCount, nil
}

func (r *repository) ListBooks(ctx context.Context, filter model.BookFilter, page, limit int) (model.ListBooks, error) {
	listQ := bookFilter(qb.Select(bookColumns).From(booksTableName), filter).
		OrderBy("created_at desc").
		Limit(uint64(limit)).
		Offset(pageOffset(page, limit))
	countQ := bookFilter(qb.Select("count(*)").From(booksTableName), filter)

	var (
		books []model.Book
		total int
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
		books, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
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
		return model.ListBooks{}, err
	}

	counts, err := r.copyCounts(ctx, bookIDs(books))
	if err != nil {
		return model.ListBooks{}, err
	}

	items := make([]model.BookWithCopies, 0, len(books))
	for _, book := range books {
		items = append(items, model.BookWithCopies{
			Book:      book,
			CopyCount: counts[book.ID],
		})
	}
	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      limit,
			TotalElements: total,
		},
		Items: items,
	}, nil
}

// copyCounts batches per-book copy counts in one grouped query to avoid N+1.
func (r *repository) copyCounts(ctx context.Context, ids []string) (map[string]int, error) {
	counts := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	rows, err := r.db.Query(ctx,
		`select book_id, count(*) from book_copies where book_id = any($1) group by book_id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookID string
			count  int
		)
		if err := rows.Scan(&bookID, &count); err != nil {
			return nil, err
		}
		counts[bookID] = count
	}
	return counts, rows.Err()
}

func bookIDs(books []model.Book) []string {
	ids := make([]string, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	return ids
}

func bookFilter(q sq.SelectBuilder, f model.BookFilter) sq.SelectBuilder {
	if f.Title != "" {
		q = q.Where(sq.ILike{"title": likePattern(f.Title)})
	}
	if f.Author != "" {
		q = q.Where(sq.ILike{"author": likePattern(f.Author)})
	}
	if f.ISBN != "" {
		q = q.Where(sq.ILike{"isbn": likePattern(f.ISBN)})
	}
	if f.Query != "" {
		pat := likePattern(f.Query)
		q = q.Where(sq.Or{
			sq.ILike{"title": pat},
			sq.ILike{"author": pat},
			sq.ILike{"isbn": pat},
		})
	}
	return q
}
