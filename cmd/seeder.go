package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/employee-directory/internal"
	authPostgres "github.com/frahmantamala/employee-directory/internal/auth/postgres"
	departmentDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/department"
	userDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/user"
	"github.com/frahmantamala/employee-directory/internal/database"
	"github.com/frahmantamala/employee-directory/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	seedAdminUsername = "admin"
	seedAdminPassword = "123456"
	seedAdminEmail    = "admin@example.com"
	seedDepartment    = "General"
)

var seedDemo bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed roles and the initial administrator",
	Long:  `Create the admin, department-manager and employee roles and an "admin" account holding the admin role. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		logger.Init(cfg.Logging.Format, cfg.Logging.Level)

		db, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := internal.WithTimeout(ctx, 0)
		defer cancel()

		return seed(ctx, db, cfg.Security.BCryptCost, seedDemo)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "also create a demo department")
}

func seed(ctx context.Context, db *database.DB, bcryptCost int, demo bool) error {
	lg := logger.LoggerWrapper()
	tx := db.Gorm.WithContext(ctx)

	for i, name := range []internal.Role{internal.RoleAdmin, internal.RoleDepartmentManager, internal.RoleEmployee} {
		role := userDatamodel.Role{ID: int64(i + 1), Name: string(name)}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}
	}

	var admin userDatamodel.User
	err := tx.Where("username = ?", seedAdminUsername).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		email := seedAdminEmail
		admin = userDatamodel.User{Username: seedAdminUsername, Password: string(hash), Email: &email}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		lg.Info("seeded admin user", "username", seedAdminUsername)
	case err != nil:
		return fmt.Errorf("failed to look up admin user: %w", err)
	default:
		lg.Info("admin user already exists", "user_id", admin.ID)
	}

	if err := authPostgres.NewRoleRepository(db.SQL).AssignRole(ctx, admin.ID, internal.RoleAdmin); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}

	if demo {
		dept := departmentDatamodel.Department{Name: seedDepartment, Status: "active"}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&dept).Error; err != nil {
			return fmt.Errorf("failed to seed department: %w", err)
		}
	}

	lg.Info("seed complete", "demo", demo)
	return nil
}
