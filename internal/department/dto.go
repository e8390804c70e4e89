package department

import "strings"

type CreateDepartmentDTO struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func (dto *CreateDepartmentDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Description != nil && strings.TrimSpace(*dto.Description) == "" {
		dto.Description = nil
	}
}

// DepartmentPatch carries only the fields present in an update request.
type DepartmentPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (p *DepartmentPatch) Normalize() {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		p.Name = &trimmed
	}
}

func (p DepartmentPatch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	return cols
}

type CreateDepartmentResponse struct {
	Message      string `json:"message"`
	DepartmentID int64  `json:"departmentId"`
}
