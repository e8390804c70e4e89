package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	userDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/user"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByUsername returns nil, nil when no user matches.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *userDatamodel.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) TouchUpdatedAt(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		UpdateColumn("updated_at", time.Now()).Error
}

// RoleRepository answers role lookups with a hand-written join.
type RoleRepository struct {
	db *sqlx.DB
}

func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// ResolveRole returns the user's role with the lowest role id.
func (r *RoleRepository) ResolveRole(ctx context.Context, userID int64) (internal.Role, error) {
	query := r.db.Rebind(`SELECT r.name
		FROM "user" u
		JOIN user_role ur ON ur.user_id = u.id
		JOIN role r ON r.id = ur.role_id
		WHERE u.id = ?
		ORDER BY ur.role_id
		LIMIT 1`)

	var name string
	if err := r.db.GetContext(ctx, &name, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", internal.ErrNoRoleAssigned
		}
		return "", internal.NewInternalError("failed to resolve role", err)
	}

	return internal.Role(name), nil
}

// AssignRole grants roleName to userID. Assigning an already held role is a no-op.
func (r *RoleRepository) AssignRole(ctx context.Context, userID int64, roleName internal.Role) error {
	query := r.db.Rebind(`INSERT INTO user_role (user_id, role_id)
		SELECT ?, id FROM role WHERE name = ?
		ON CONFLICT DO NOTHING`)

	_, err := r.db.ExecContext(ctx, query, userID, string(roleName))
	return err
}
