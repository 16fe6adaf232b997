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

const borrowColumns = "id, copy_id, member_id, status, borrowed_at, returned_at"

// BorrowCopy lends a copy to a member. The copy row is locked for the
// duration of the transaction, so two concurrent borrows of the same copy
// serialize here and the loser observes the committed checked_out status.
// Borrows of different copies proceed in parallel.
func (r *repository) BorrowCopy(ctx context.Context, copyID, memberID string) (model.Borrow, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Borrow{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cp, err := lockCopy(ctx, tx, copyID)
	if err != nil {
		return model.Borrow{}, err
	}
	if cp.Status != model.CopyStatusAvailable {
		return model.Borrow{}, errors.Wrap(errs.ErrConflict, "copy is not available")
	}

	var memberExists bool
	if err := tx.QueryRow(ctx,
		`select exists(select 1 from members where id = $1)`, memberID).Scan(&memberExists); err != nil {
		return model.Borrow{}, err
	}
	if !memberExists {
		return model.Borrow{}, errors.Wrap(errs.ErrNotFound, "member")
	}

	// guard against a status column desynchronized from the borrows table
	var activeExists bool
	if err := tx.QueryRow(ctx,
		`select exists(select 1 from borrows where copy_id = $1 and status = $2)`,
		copyID, model.BorrowStatusActive).Scan(&activeExists); err != nil {
		return model.Borrow{}, err
	}
	if activeExists {
		return model.Borrow{}, errors.Wrap(errs.ErrConflict, "copy already has an active borrow")
	}

	q := `insert into borrows (id, copy_id, member_id, status)
	values (@id, @copy_id, @member_id, @status)
	returning ` + borrowColumns
	args := pgx.NamedArgs{
		"id":        uuid.NewString(),
		"copy_id":   copyID,
		"member_id": memberID,
		"status":    model.BorrowStatusActive,
	}
	rows, err := tx.Query(ctx, q, args)
	if err != nil {
		return model.Borrow{}, err
	}
	borrow, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Borrow])
	if err != nil {
		r.log.Error("BorrowCopy insert", zap.String("copy_id", copyID), zap.Error(err))
		return model.Borrow{}, err
	}

	if _, err := tx.Exec(ctx,
		`update book_copies set status = $1, updated_at = now() where id = $2`,
		model.CopyStatusCheckedOut, copyID); err != nil {
		return model.Borrow{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Borrow{}, errors.Wrap(err, "commit tx")
	}
	return borrow, nil
}

// ReturnCopy closes the active borrow for a copy. It takes the same per-copy
// lock as BorrowCopy so a return cannot interleave with a concurrent borrow
// of the same copy.
func (r *repository) ReturnCopy(ctx context.Context, copyID string) (model.Borrow, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Borrow{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := lockCopy(ctx, tx, copyID); err != nil {
		return model.Borrow{}, err
	}

	q := `update borrows
	set status = $1, returned_at = now()
	where copy_id = $2 and status = $3
	returning ` + borrowColumns
	rows, err := tx.Query(ctx, q, model.BorrowStatusReturned, copyID, model.BorrowStatusActive)
	if err != nil {
		return model.Borrow{}, err
	}
	borrow, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Borrow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Borrow{}, errors.Wrap(errs.ErrConflict, "no active borrow for this copy")
		}
		return model.Borrow{}, err
	}

	if _, err := tx.Exec(ctx,
		`update book_copies set status = $1, updated_at = now() where id = $2`,
		model.CopyStatusAvailable, copyID); err != nil {
		return model.Borrow{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Borrow{}, errors.Wrap(err, "commit tx")
	}
	return borrow, nil
}

// lockCopy reads a copy row under SELECT FOR UPDATE. The lock is held until
// the surrounding transaction commits or rolls back.
func lockCopy(ctx context.Context, tx pgx.Tx, copyID string) (model.BookCopy, error) {
	rows, err := tx.Query(ctx,
		`select `+copyColumns+` from book_copies where id = $1 for update`, copyID)
	if err != nil {
		return model.BookCopy{}, err
	}
	cp, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.BookCopy])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.BookCopy{}, errors.Wrap(errs.ErrNotFound, "copy")
		}
		return model.BookCopy{}, err
	}
	return cp, nil
}

func (r *repository) ListBorrowings(ctx context.Context, filter model.BorrowFilter, page, limit int) (model.ListBorrows, error) {
	listQ := borrowFilter(qb.Select(
		"br.id", "br.copy_id", "br.member_id", "br.status", "br.borrowed_at", "br.returned_at",
		"c.copy_number", "b.title as book_title", "m.name as member_name").
		From(borrowsTableName+" br").
		Join(bookCopiesTableName+" c on c.id = br.copy_id").
		Join(booksTableName+" b on b.id = c.book_id").
		Join(membersTableName+" m on m.id = br.member_id"), filter).
		OrderBy("br.borrowed_at desc").
		Limit(uint64(limit)).
		Offset(pageOffset(page, limit))
	countQ := borrowFilter(qb.Select("count(*)").
		From(borrowsTableName+" br").
		Join(bookCopiesTableName+" c on c.id = br.copy_id").
		Join(booksTableName+" b on b.id = c.book_id").
		Join(membersTableName+" m on m.id = br.member_id"), filter)

	var (
		items []model.BorrowInfo
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
		items, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.BorrowInfo])
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
		return model.ListBorrows{}, err
	}

	return model.ListBorrows{
		Paging: model.Paging{
			Page:          page,
			PageSize:      limit,
			TotalElements: total,
		},
		Items: items,
	}, nil
}

func borrowFilter(q sq.SelectBuilder, f model.BorrowFilter) sq.SelectBuilder {
	q = q.Where(sq.Eq{"br.status": model.BorrowStatusActive})
	if f.MemberID != "" {
		q = q.Where(sq.Eq{"br.member_id": f.MemberID})
	}
	if f.Query != "" {
		pat := likePattern(f.Query)
		q = q.Where(sq.Or{
			sq.ILike{"b.title": pat},
			sq.ILike{"m.name": pat},
			sq.ILike{"c.copy_number": pat},
		})
	}
	return q
}
