package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/employee-directory/internal/user"
	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetProfile(ctx context.Context, userID int64) (*user.ProfileRow, error) {
	query := r.db.Rebind(`SELECT u.id, u.username, u.email, u.phone, u.created_at, e.id AS employee_id
		FROM "user" u
		LEFT JOIN employee e ON e.user_id = u.id
		WHERE u.id = ?`)

	var row user.ProfileRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
