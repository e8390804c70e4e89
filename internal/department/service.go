package department

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
	departmentDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/department"
	"github.com/frahmantamala/employee-directory/internal/database"
)

type RepositoryAPI interface {
	ListActive(ctx context.Context) ([]*departmentDatamodel.Department, error)
	// GetByID returns nil, nil when the department does not exist.
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
	Create(ctx context.Context, dept *departmentDatamodel.Department) error
	Update(ctx context.Context, id int64, columns map[string]any) error
	EmployeeExists(ctx context.Context, employeeID int64) (bool, error)
	AddMember(ctx context.Context, departmentID, employeeID int64) error
	RemoveMember(ctx context.Context, departmentID, employeeID int64) error
}

type Service struct {
	repo      RepositoryAPI
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, v *validation.Validator, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: v,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns active departments only.
func (s *Service) List(ctx context.Context) ([]*Department, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to get departments from repository", "error", err)
		return nil, internal.NewInternalError("failed to list departments", err)
	}

	departments := make([]*Department, 0, len(rows))
	for _, row := range rows {
		departments = append(departments, FromDataModel(row))
	}

	s.logger.Debug("retrieved departments", "count", len(departments))
	return departments, nil
}

func (s *Service) Create(ctx context.Context, dto CreateDepartmentDTO) (int64, error) {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return 0, err
	}

	row := ToDataModel(NewDepartment(dto.Name, dto.Description))
	if err := s.repo.Create(ctx, row); err != nil {
		if database.IsUniqueViolation(err) {
			return 0, internal.ErrDuplicateDepartment
		}
		return 0, internal.NewInternalError("failed to create department", err)
	}

	s.logger.Info("department created", "department_id", row.ID, "name", row.Name)
	return row.ID, nil
}

// Update applies the fields present in patch.
func (s *Service) Update(ctx context.Context, id int64, patch DepartmentPatch) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to load department", err)
	}
	if existing == nil {
		return internal.ErrDepartmentNotFound
	}

	patch.Normalize()
	cols := patch.Columns()
	if len(cols) == 0 {
		return internal.ErrNoFieldsProvided
	}
	if err := s.validator.Struct(patch); err != nil {
		return err
	}
	cols["updated_at"] = s.now()

	if err := s.repo.Update(ctx, id, cols); err != nil {
		if database.IsUniqueViolation(err) {
			return internal.ErrDuplicateDepartment
		}
		return internal.NewInternalError("failed to update department", err)
	}

	s.logger.Info("department updated", "department_id", id)
	return nil
}

// AddMember links an employee to a department. Linking twice is a no-op.
func (s *Service) AddMember(ctx context.Context, departmentID, employeeID int64) error {
	dept, err := s.repo.GetByID(ctx, departmentID)
	if err != nil {
		return internal.NewInternalError("failed to load department", err)
	}
	if dept == nil {
		return internal.ErrDepartmentNotFound
	}

	exists, err := s.repo.EmployeeExists(ctx, employeeID)
	if err != nil {
		return internal.NewInternalError("failed to load employee", err)
	}
	if !exists {
		return internal.ErrEmployeeNotFound
	}

	if err := s.repo.AddMember(ctx, departmentID, employeeID); err != nil {
		return internal.NewInternalError("failed to add department member", err)
	}

	s.logger.Info("department member added", "department_id", departmentID, "employee_id", employeeID)
	return nil
}

// RemoveMember unlinks an employee. Removing a missing link succeeds.
func (s *Service) RemoveMember(ctx context.Context, departmentID, employeeID int64) error {
	if err := s.repo.RemoveMember(ctx, departmentID, employeeID); err != nil {
		return internal.NewInternalError("failed to remove department member", err)
	}
	s.logger.Info("department member removed", "department_id", departmentID, "employee_id", employeeID)
	return nil
}
