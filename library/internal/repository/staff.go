package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/bookdesk/library-service/library/internal/errs"
	"github.com/bookdesk/library-service/library/internal/model"
)

func (r *repository) GetStaffByUsername(ctx context.Context, username string) (model.StaffUser, error) {
	query, args, err := qb.Select("id", "username", "password_hash", "created_at", "last_login_at").
		From(staffUsersTableName).
		Where(sq.Eq{"username": username}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.StaffUser{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.StaffUser{}, err
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.StaffUser])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StaffUser{}, errors.Wrap(errs.ErrNotFound, "staff user")
		}
		return model.StaffUser{}, err
	}
	return user, nil
}

func (r *repository) TouchStaffLogin(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`update staff_users set last_login_at = now() where id = $1`, id)
	return err
}
