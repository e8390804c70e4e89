package employee

import "time"

type Employee struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	Gender    *string   `gorm:"column:gender"`
	Birthday  *string   `gorm:"column:birthday"`
	HireDate  *string   `gorm:"column:hire_date"`
	Position  *string   `gorm:"column:position"`
	Salary    *float64  `gorm:"column:salary;type:decimal(12,2)"`
	Photo     *string   `gorm:"column:photo"`
	Status    string    `gorm:"column:status;not null;default:'active'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "employee"
}

type EmployeeDepartment struct {
	EmployeeID   int64 `gorm:"column:employee_id;primaryKey;autoIncrement:false"`
	DepartmentID int64 `gorm:"column:department_id;primaryKey;autoIncrement:false"`
}

func (EmployeeDepartment) TableName() string {
	return "employee_department"
}
