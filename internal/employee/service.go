package employee

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/user"
	"github.com/frahmantamala/employee-directory/internal/database"
	"github.com/frahmantamala/employee-directory/internal/upload"
)

type RepositoryAPI interface {
	ListAll(ctx context.Context) ([]*Employee, error)
	ListByManager(ctx context.Context, managerUserID int64) ([]*Employee, error)
	ListByUser(ctx context.Context, userID int64) ([]*Employee, error)
	// GetByID returns nil, nil when the employee does not exist.
	GetByID(ctx context.Context, id int64) (*Employee, error)
	SharesDepartment(ctx context.Context, managerUserID, employeeID int64) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	CreateWithUser(ctx context.Context, user *userDatamodel.User, emp *employeeDatamodel.Employee, departmentIDs []int64) error
	Update(ctx context.Context, id int64, columns map[string]any) error
}

type PhotoStore interface {
	Put(ctx context.Context, f *upload.File) (string, error)
	Remove(ctx context.Context, name string) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo      RepositoryAPI
	photos    PhotoStore
	hasher    PasswordHasher
	validator *validation.Validator
	cfg       internal.EmployeeConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, photos PhotoStore, hasher PasswordHasher, v *validation.Validator, cfg internal.EmployeeConfig, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		photos:    photos,
		hasher:    hasher,
		validator: v,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns the employees visible to the caller's role.
func (s *Service) List(ctx context.Context, caller internal.CurrentUser, role internal.Role) ([]*Employee, error) {
	var (
		employees []*Employee
		err       error
	)

	switch role {
	case internal.RoleAdmin:
		employees, err = s.repo.ListAll(ctx)
	case internal.RoleDepartmentManager:
		employees, err = s.repo.ListByManager(ctx, caller.ID)
	default:
		employees, err = s.repo.ListByUser(ctx, caller.ID)
	}
	if err != nil {
		s.logger.Error("failed to list employees", "role", role, "user_id", caller.ID, "error", err)
		return nil, internal.NewInternalError("failed to list employees", err)
	}

	if employees == nil {
		employees = []*Employee{}
	}
	return employees, nil
}

// Get returns one employee when it falls inside the caller's listing scope.
// Employees outside the scope are reported as not found.
func (s *Service) Get(ctx context.Context, caller internal.CurrentUser, role internal.Role, id int64) (*Employee, error) {
	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load employee", err)
	}
	if emp == nil {
		return nil, internal.ErrEmployeeNotFound
	}

	visible, err := s.visible(ctx, caller, role, emp)
	if err != nil {
		return nil, internal.NewInternalError("failed to check employee visibility", err)
	}
	if !visible {
		return nil, internal.ErrEmployeeNotFound
	}

	return emp, nil
}

func (s *Service) visible(ctx context.Context, caller internal.CurrentUser, role internal.Role, emp *Employee) (bool, error) {
	if role == internal.RoleAdmin || emp.UserID == caller.ID {
		return true, nil
	}
	if role == internal.RoleDepartmentManager {
		return s.repo.SharesDepartment(ctx, caller.ID, emp.ID)
	}
	return false, nil
}

// Create provisions the backing user with the default password and the
// employee role, then inserts the employee. photo may be nil.
func (s *Service) Create(ctx context.Context, dto CreateEmployeeDTO, photo *upload.File) (int64, error) {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return 0, err
	}

	username := DeriveUsername(dto.Name, s.cfg.RomanizeUsernames)
	if username == "" {
		return 0, internal.NewMissingFieldError("name")
	}

	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return 0, internal.NewInternalError("failed to check username", err)
	}
	if exists {
		return 0, internal.ErrDuplicateUser
	}

	hash, err := s.hasher.HashPassword(s.cfg.DefaultPassword)
	if err != nil {
		return 0, internal.NewInternalError("failed to hash password", err)
	}

	emp := dto.ToDataModel()
	if photo != nil {
		name, err := s.photos.Put(ctx, photo)
		if err != nil {
			return 0, err
		}
		emp.Photo = &name
	}

	user := &userDatamodel.User{Username: username, Password: hash}
	if err := s.repo.CreateWithUser(ctx, user, emp, dto.DepartmentIDs); err != nil {
		s.discardPhoto(ctx, emp.Photo)
		if database.IsUniqueViolation(err) {
			return 0, internal.ErrDuplicateUser
		}
		if _, ok := internal.IsAppError(err); ok {
			return 0, err
		}
		s.logger.Error("failed to create employee", "username", username, "error", err)
		return 0, internal.NewInternalError("failed to create employee", err)
	}

	s.logger.Info("employee created", "employee_id", emp.ID, "user_id", user.ID, "username", username)
	return emp.ID, nil
}

// Update applies the fields present in patch. A new photo replaces the
// stored one; without a photo the column is left untouched.
func (s *Service) Update(ctx context.Context, id int64, patch EmployeePatch, photo *upload.File) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to load employee", err)
	}
	if existing == nil {
		return internal.ErrEmployeeNotFound
	}

	patch.Normalize()
	if patch.IsEmpty() && photo == nil {
		return internal.ErrNoFieldsProvided
	}
	if err := s.validator.Struct(patch); err != nil {
		return err
	}

	cols := patch.Columns()
	var newPhoto *string
	if photo != nil {
		name, err := s.photos.Put(ctx, photo)
		if err != nil {
			return err
		}
		newPhoto = &name
		cols["photo"] = name
	}
	cols["updated_at"] = s.now()

	if err := s.repo.Update(ctx, id, cols); err != nil {
		s.discardPhoto(ctx, newPhoto)
		s.logger.Error("failed to update employee", "employee_id", id, "error", err)
		return internal.NewInternalError("failed to update employee", err)
	}

	if newPhoto != nil {
		s.discardPhoto(ctx, existing.Photo)
	}

	s.logger.Info("employee updated", "employee_id", id, "fields", len(cols)-1)
	return nil
}

func (s *Service) discardPhoto(ctx context.Context, name *string) {
	if name == nil || *name == "" {
		return
	}
	if err := s.photos.Remove(ctx, *name); err != nil {
		s.logger.Warn("failed to remove photo", "photo", *name, "error", err)
	}
}
