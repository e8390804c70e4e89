package employee

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/frahmantamala/employee-directory/internal/upload"
)

const multipartMemory = 8 << 20

type ServiceAPI interface {
	List(ctx context.Context, caller internal.CurrentUser, role internal.Role) ([]*Employee, error)
	Get(ctx context.Context, caller internal.CurrentUser, role internal.Role, id int64) (*Employee, error)
	Create(ctx context.Context, dto CreateEmployeeDTO, photo *upload.File) (int64, error)
	Update(ctx context.Context, id int64, patch EmployeePatch, photo *upload.File) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	// MaxBodySize caps request bodies; zero disables the cap.
	MaxBodySize int64
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, maxUploadSize int64) *Handler {
	h := &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
	if maxUploadSize > 0 {
		// leave room for the text fields sent alongside the photo
		h.MaxBodySize = maxUploadSize + 1<<20
	}
	return h
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	caller, role, ok := h.identity(w, r)
	if !ok {
		return
	}

	employees, err := h.Service.List(r.Context(), caller, role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, employees)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	caller, role, ok := h.identity(w, r)
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	emp, err := h.Service.Get(r.Context(), caller, role, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, emp)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)

	var (
		dto   CreateEmployeeDTO
		photo *upload.File
	)

	if isMultipart(r) {
		form, file, err := h.readMultipart(r)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		defer closeFile(file)
		photo = file

		dto, err = createDTOFromForm(form)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleServiceError(w, bodyError(err))
		return
	}

	id, err := h.Service.Create(r.Context(), dto, photo)
	if err != nil {
		h.Logger.Warn("CreateEmployee: failed", "name", dto.Name, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, CreateEmployeeResponse{
		Message:    h.Message(i18n.MsgEmployeeCreated),
		EmployeeID: id,
	})
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.limitBody(w, r)

	var (
		patch EmployeePatch
		photo *upload.File
	)

	if isMultipart(r) {
		form, file, err := h.readMultipart(r)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		defer closeFile(file)
		photo = file

		patch, err = patchFromForm(form)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		h.HandleServiceError(w, bodyError(err))
		return
	}

	if err := h.Service.Update(r.Context(), id, patch, photo); err != nil {
		h.Logger.Warn("UpdateEmployee: failed", "employee_id", id, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteMessage(w, http.StatusOK, i18n.MsgEmployeeUpdated)
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (internal.CurrentUser, internal.Role, bool) {
	caller, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrMissingToken)
		return internal.CurrentUser{}, "", false
	}
	role, ok := internal.RoleFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrNoRoleAssigned)
		return internal.CurrentUser{}, "", false
	}
	return caller, role, true
}

func (h *Handler) limitBody(w http.ResponseWriter, r *http.Request) {
	if h.MaxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodySize)
	}
}

// readMultipart parses the form and opens the optional "photo" part.
func (h *Handler) readMultipart(r *http.Request) (*multipart.Form, *upload.File, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, nil, bodyError(err)
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return r.MultipartForm, nil, nil
		}
		return nil, nil, bodyError(err)
	}

	return r.MultipartForm, &upload.File{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return internal.ErrFileTooLarge
	}
	return internal.ErrInvalidRequestBody.WithCause(err)
}

func closeFile(f *upload.File) {
	if f == nil {
		return
	}
	if c, ok := f.Content.(io.Closer); ok {
		_ = c.Close()
	}
}

func createDTOFromForm(form *multipart.Form) (CreateEmployeeDTO, error) {
	dto := CreateEmployeeDTO{
		Name:     formValue(form, "name"),
		Gender:   formField(form, "gender"),
		Birthday: formField(form, "birthday"),
		HireDate: formField(form, "hire_date"),
		Position: formField(form, "position"),
	}

	salary, err := formFloat(form, "salary")
	if err != nil {
		return dto, err
	}
	dto.Salary = salary

	for _, raw := range form.Value["department_ids"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return dto, internal.NewValidationFieldError("department_ids", "department_ids must be a list of ids", internal.ErrCodeValidationFailed)
			}
			dto.DepartmentIDs = append(dto.DepartmentIDs, id)
		}
	}

	return dto, nil
}

// patchFromForm treats a form key as present only when the client sent it.
func patchFromForm(form *multipart.Form) (EmployeePatch, error) {
	patch := EmployeePatch{
		Name:     formField(form, "name"),
		Gender:   formField(form, "gender"),
		Birthday: formField(form, "birthday"),
		HireDate: formField(form, "hire_date"),
		Position: formField(form, "position"),
		Status:   formField(form, "status"),
	}

	salary, err := formFloat(form, "salary")
	if err != nil {
		return patch, err
	}
	patch.Salary = salary

	return patch, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func formField(form *multipart.Form, key string) *string {
	v, ok := form.Value[key]
	if !ok || len(v) == 0 {
		return nil
	}
	value := v[0]
	return &value
}

func formFloat(form *multipart.Form, key string) (*float64, error) {
	raw := formField(form, key)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		return nil, internal.NewValidationFieldError(key, key+" must be a number", internal.ErrCodeValidationFailed)
	}
	return &f, nil
}
