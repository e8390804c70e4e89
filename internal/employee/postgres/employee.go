package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/frahmantamala/employee-directory/internal"
	departmentDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/department"
	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/user"
	"github.com/frahmantamala/employee-directory/internal/database"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

const selectEmployee = `SELECT e.id, e.user_id, e.name, e.gender, e.birthday, e.hire_date,
	e.position, e.salary, e.photo, e.status, e.created_at, e.updated_at,
	u.username, u.email
	FROM employee e
	JOIN "user" u ON u.id = e.user_id`

// EmployeeRepository reads through sqlx and writes through gorm.
type EmployeeRepository struct {
	gorm *gorm.DB
	sqlx *sqlx.DB
}

func NewEmployeeRepository(db *database.DB) employee.RepositoryAPI {
	return &EmployeeRepository{gorm: db.Gorm, sqlx: db.SQL}
}

func (r *EmployeeRepository) ListAll(ctx context.Context) ([]*employee.Employee, error) {
	var employees []*employee.Employee
	err := r.sqlx.SelectContext(ctx, &employees, selectEmployee+` ORDER BY e.id`)
	return employees, err
}

// ListByManager returns employees sharing at least one department with the
// manager's own employee record. Each employee appears once.
func (r *EmployeeRepository) ListByManager(ctx context.Context, managerUserID int64) ([]*employee.Employee, error) {
	query := r.sqlx.Rebind(`SELECT DISTINCT e.id, e.user_id, e.name, e.gender, e.birthday, e.hire_date,
		e.position, e.salary, e.photo, e.status, e.created_at, e.updated_at,
		u.username, u.email
		FROM employee e
		JOIN "user" u ON u.id = e.user_id
		JOIN employee_department ed ON ed.employee_id = e.id
		WHERE ed.department_id IN (
			SELECT med.department_id
			FROM employee_department med
			JOIN employee me ON me.id = med.employee_id
			WHERE me.user_id = ?
		)
		ORDER BY e.id`)

	var employees []*employee.Employee
	err := r.sqlx.SelectContext(ctx, &employees, query, managerUserID)
	return employees, err
}

func (r *EmployeeRepository) ListByUser(ctx context.Context, userID int64) ([]*employee.Employee, error) {
	query := r.sqlx.Rebind(selectEmployee + ` WHERE e.user_id = ? ORDER BY e.id`)

	var employees []*employee.Employee
	err := r.sqlx.SelectContext(ctx, &employees, query, userID)
	return employees, err
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*employee.Employee, error) {
	query := r.sqlx.Rebind(selectEmployee + ` WHERE e.id = ?`)

	var emp employee.Employee
	if err := r.sqlx.GetContext(ctx, &emp, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) SharesDepartment(ctx context.Context, managerUserID, employeeID int64) (bool, error) {
	query := r.sqlx.Rebind(`SELECT COUNT(*)
		FROM employee_department ed
		JOIN employee_department med ON med.department_id = ed.department_id
		JOIN employee me ON me.id = med.employee_id
		WHERE ed.employee_id = ? AND me.user_id = ?`)

	var n int
	if err := r.sqlx.GetContext(ctx, &n, query, employeeID, managerUserID); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *EmployeeRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.gorm.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("username = ?", username).
		Count(&n).Error
	return n > 0, err
}

// CreateWithUser inserts the user, grants it the employee role, inserts the
// employee and links departments in one transaction.
func (r *EmployeeRepository) CreateWithUser(ctx context.Context, user *userDatamodel.User, emp *employeeDatamodel.Employee, departmentIDs []int64) error {
	return r.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		var role userDatamodel.Role
		if err := tx.Where("name = ?", string(internal.RoleEmployee)).First(&role).Error; err != nil {
			return fmt.Errorf("lookup employee role: %w", err)
		}
		if err := tx.Create(&userDatamodel.UserRole{UserID: user.ID, RoleID: role.ID}).Error; err != nil {
			return err
		}

		emp.UserID = user.ID
		if err := tx.Create(emp).Error; err != nil {
			return err
		}

		ids := uniqueIDs(departmentIDs)
		if len(ids) == 0 {
			return nil
		}

		var found int64
		if err := tx.Model(&departmentDatamodel.Department{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return err
		}
		if found != int64(len(ids)) {
			return internal.ErrDepartmentNotFound
		}

		links := make([]employeeDatamodel.EmployeeDepartment, 0, len(ids))
		for _, id := range ids {
			links = append(links, employeeDatamodel.EmployeeDepartment{EmployeeID: emp.ID, DepartmentID: id})
		}
		return tx.Create(&links).Error
	})
}

func (r *EmployeeRepository) Update(ctx context.Context, id int64, columns map[string]any) error {
	return r.gorm.WithContext(ctx).
		Model(&employeeDatamodel.Employee{}).
		Where("id = ?", id).
		Updates(columns).Error
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
