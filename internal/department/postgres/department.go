package postgres

import (
	"context"
	"errors"

	departmentDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/department"
	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-directory/internal/department"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) ListActive(ctx context.Context) ([]*departmentDatamodel.Department, error) {
	var departments []*departmentDatamodel.Department
	err := r.db.WithContext(ctx).
		Where("status = ?", department.StatusActive).
		Order("id ASC").
		Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error) {
	var dept departmentDatamodel.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *departmentDatamodel.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *DepartmentRepository) Update(ctx context.Context, id int64, columns map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&departmentDatamodel.Department{}).
		Where("id = ?", id).
		Updates(columns).Error
}

func (r *DepartmentRepository) EmployeeExists(ctx context.Context, employeeID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&employeeDatamodel.Employee{}).
		Where("id = ?", employeeID).
		Count(&n).Error
	return n > 0, err
}

func (r *DepartmentRepository) AddMember(ctx context.Context, departmentID, employeeID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&employeeDatamodel.EmployeeDepartment{EmployeeID: employeeID, DepartmentID: departmentID}).Error
}

func (r *DepartmentRepository) RemoveMember(ctx context.Context, departmentID, employeeID int64) error {
	return r.db.WithContext(ctx).
		Where("employee_id = ? AND department_id = ?", employeeID, departmentID).
		Delete(&employeeDatamodel.EmployeeDepartment{}).Error
}
