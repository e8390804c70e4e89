package postgres

import (
	"context"

	userDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type LoginLogRepository struct {
	db *gorm.DB
}

func NewLoginLogRepository(db *gorm.DB) *LoginLogRepository {
	return &LoginLogRepository{db: db}
}

func (r *LoginLogRepository) CreateLoginLog(ctx context.Context, entry *userDatamodel.LoginLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
