package department

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Department, error)
	Create(ctx context.Context, dto CreateDepartmentDTO) (int64, error)
	Update(ctx context.Context, id int64, patch DepartmentPatch) error
	AddMember(ctx context.Context, departmentID, employeeID int64) error
	RemoveMember(ctx context.Context, departmentID, employeeID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) GetDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("GetDepartments: failed to get departments", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, departments)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var dto CreateDepartmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleServiceError(w, internal.ErrInvalidRequestBody)
		return
	}

	id, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("CreateDepartment: failed", "name", dto.Name, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, CreateDepartmentResponse{
		Message:      h.Message(i18n.MsgDepartmentCreated),
		DepartmentID: id,
	})
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var patch DepartmentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		h.HandleServiceError(w, internal.ErrInvalidRequestBody)
		return
	}

	if err := h.Service.Update(r.Context(), id, patch); err != nil {
		h.Logger.Warn("UpdateDepartment: failed", "department_id", id, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, http.StatusOK, i18n.MsgDepartmentUpdated)
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	departmentID, employeeID, ok := h.memberIDs(w, r)
	if !ok {
		return
	}

	if err := h.Service.AddMember(r.Context(), departmentID, employeeID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, http.StatusOK, i18n.MsgMemberAdded)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	departmentID, employeeID, ok := h.memberIDs(w, r)
	if !ok {
		return
	}

	if err := h.Service.RemoveMember(r.Context(), departmentID, employeeID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, http.StatusOK, i18n.MsgMemberRemoved)
}

func (h *Handler) memberIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	departmentID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return 0, 0, false
	}
	employeeID, err := h.ParseIDParam(r, "employeeId")
	if err != nil {
		h.HandleServiceError(w, err)
		return 0, 0, false
	}
	return departmentID, employeeID, true
}
