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

const memberColumns = "id, name, email, created_at, updated_at"

func (r *repository) CreateMember(ctx context.Context, req model.CreateMemberRequest) (model.Member, error) {
	query, args, err := qb.Insert(membersTableName).
		Columns("id", "name", "email").
		Values(uuid.NewString(), req.Name, req.Email).
		Suffix("returning " + memberColumns).
		ToSql()
	if err != nil {
		return model.Member{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Member{}, err
	}
	member, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Member])
	if err != nil {
		if isUniqueViolation(err) {
			return model.Member{}, errors.Wrap(errs.ErrConflict, "email already registered")
		}
		return model.Member{}, err
	}
	return member, nil
}

func (r *repository) UpdateMember(ctx context.Context, id string, req model.UpdateMemberRequest) (model.Member, error) {
	ub := qb.Update(membersTableName).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("returning " + memberColumns)
	if req.Name != nil {
		ub = ub.Set("name", *req.Name)
	}
	if req.Email != nil {
		ub = ub.Set("email", *req.Email)
	}

	query, args, err := ub.ToSql()
	if err != nil {
		return model.Member{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Member{}, err
	}
	member, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Member])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Member{}, errors.Wrap(errs.ErrNotFound, "member")
		}
		if isUniqueViolation(err) {
			return model.Member{}, errors.Wrap(errs.ErrConflict, "email already registered")
		}
		return model.Member{}, err
	}
	return member, nil
}

func (r *repository) GetMember(ctx context.Context, id string) (model.Member, error) {
	query, args, err := qb.Select(memberColumns).
		From(membersTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Member{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Member{}, err
	}
	member, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Member])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Member{}, errors.Wrap(errs.ErrNotFound, "member")
		}
		return model.Member{}, err
	}
	return member, nil
}

func (r *repository) ListMembers(ctx context.Context, filter model.MemberFilter, page, limit int) (model.ListMembers, error) {
	listQ := memberFilter(qb.Select(memberColumns).From(membersTableName), filter).
		OrderBy("created_at desc").
		Limit(uint64(limit)).
		Offset(pageOffset(page, limit))
	countQ := memberFilter(qb.Select("count(*)").From(membersTableName), filter)

	var (
		members []model.Member
		total   int
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
		members, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Member])
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
		return model.ListMembers{}, err
	}

	return model.ListMembers{
		Paging: model.Paging{
			Page:          page,
			PageSize:      limit,
			TotalElements: total,
		},
		Items: members,
	}, nil
}

func memberFilter(q sq.SelectBuilder, f model.MemberFilter) sq.SelectBuilder {
	if f.Name != "" {
		q = q.Where(sq.ILike{"name": likePattern(f.Name)})
	}
	if f.Email != "" {
		q = q.Where(sq.ILike{"email": likePattern(f.Email)})
	}
	if f.Query != "" {
		pat := likePattern(f.Query)
		q = q.Where(sq.Or{
			sq.ILike{"name": pat},
			sq.ILike{"email": pat},
		})
	}
	return q
}
