package employee

import "strings"

type CreateEmployeeDTO struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Gender        *string  `json:"gender" validate:"omitempty,max=16"`
	Birthday      *string  `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	HireDate      *string  `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	Position      *string  `json:"position" validate:"omitempty,max=100"`
	Salary        *float64 `json:"salary" validate:"omitempty,gte=0"`
	DepartmentIDs []int64  `json:"department_ids" validate:"omitempty,dive,gt=0"`
}

// Normalize trims text fields and drops optional ones left blank.
func (dto *CreateEmployeeDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Gender = blankToNil(dto.Gender)
	dto.Birthday = blankToNil(dto.Birthday)
	dto.HireDate = blankToNil(dto.HireDate)
	dto.Position = blankToNil(dto.Position)
}

// EmployeePatch carries only the fields present in an update request.
type EmployeePatch struct {
	Name     *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Gender   *string  `json:"gender" validate:"omitempty,max=16"`
	Birthday *string  `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	HireDate *string  `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	Position *string  `json:"position" validate:"omitempty,max=100"`
	Salary   *float64 `json:"salary" validate:"omitempty,gte=0"`
	Status   *string  `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (p *EmployeePatch) Normalize() {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		p.Name = &trimmed
	}
}

func (p EmployeePatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

// Columns maps every present field to its column.
func (p EmployeePatch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Gender != nil {
		cols["gender"] = *p.Gender
	}
	if p.Birthday != nil {
		cols["birthday"] = *p.Birthday
	}
	if p.HireDate != nil {
		cols["hire_date"] = *p.HireDate
	}
	if p.Position != nil {
		cols["position"] = *p.Position
	}
	if p.Salary != nil {
		cols["salary"] = *p.Salary
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	return cols
}

type CreateEmployeeResponse struct {
	Message    string `json:"message"`
	EmployeeID int64  `json:"employeeId"`
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
