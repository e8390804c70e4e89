package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/employee-directory/internal/auth"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/internal/department"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/frahmantamala/employee-directory/internal/user"
)

const defaultHTTPTimeout = 30 * time.Second

var (
	// ErrLoginRequired is returned before a request that needs a token when
	// none is stored.
	ErrLoginRequired = errors.New("login required")
	// ErrSessionExpired is returned when the server rejects the stored token
	// with 401. The token has already been cleared.
	ErrSessionExpired = errors.New("session expired")
)

// APIError is a non-2xx response. Message is the server's error string or a
// localized fallback when the body carried none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Config struct {
	// BaseURL includes the API prefix, e.g. http://localhost:8080/api.
	BaseURL    string
	Tokens     TokenStore
	Catalog    *i18n.Catalog
	HTTPClient *http.Client
}

// Client talks to the directory API and owns the session token.
type Client struct {
	baseURL    string
	tokens     TokenStore
	catalog    *i18n.Catalog
	httpClient *http.Client
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = i18n.Default()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		tokens:     cfg.Tokens,
		catalog:    catalog,
		httpClient: httpClient,
	}
}

// Photo is an image attached to an employee create or update.
type Photo struct {
	Filename string
	Content  io.Reader
}

// Message localizes a catalog key for CLI output.
func (c *Client) Message(key string) string {
	return c.catalog.Message(key, key)
}

// LoggedIn reports whether a token is stored.
func (c *Client) LoggedIn() bool {
	token, err := c.tokens.Load()
	return err == nil && token != ""
}

func (c *Client) Login(ctx context.Context, username, password string) (*auth.LoginResponse, error) {
	var resp auth.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/login", false, auth.LoginDTO{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	if err := c.tokens.Save(resp.Token); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, dto auth.RegisterDTO) (*auth.RegisterResponse, error) {
	var resp auth.RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, "/register", false, dto, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// Me returns the signed-in user's profile. It needs a token but not a role.
func (c *Client) Me(ctx context.Context) (*user.Profile, error) {
	var profile user.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", true, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) ListEmployees(ctx context.Context) ([]employee.Employee, error) {
	var employees []employee.Employee
	if err := c.doJSON(ctx, http.MethodGet, "/employees", true, nil, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

func (c *Client) GetEmployee(ctx context.Context, id int64) (*employee.Employee, error) {
	var emp employee.Employee
	if err := c.doJSON(ctx, http.MethodGet, "/employees/"+strconv.FormatInt(id, 10), true, nil, &emp); err != nil {
		return nil, err
	}
	return &emp, nil
}

// CreateEmployee sends JSON, or multipart/form-data when photo is set.
func (c *Client) CreateEmployee(ctx context.Context, dto employee.CreateEmployeeDTO, photo *Photo) (*employee.CreateEmployeeResponse, error) {
	var resp employee.CreateEmployeeResponse
	if photo == nil {
		if err := c.doJSON(ctx, http.MethodPost, "/employees", true, dto, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	fields := map[string]string{"name": dto.Name}
	putField(fields, "gender", dto.Gender)
	putField(fields, "birthday", dto.Birthday)
	putField(fields, "hire_date", dto.HireDate)
	putField(fields, "position", dto.Position)
	if dto.Salary != nil {
		fields["salary"] = strconv.FormatFloat(*dto.Salary, 'f', -1, 64)
	}
	if len(dto.DepartmentIDs) > 0 {
		ids := make([]string, len(dto.DepartmentIDs))
		for i, id := range dto.DepartmentIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		fields["department_ids"] = strings.Join(ids, ",")
	}

	if err := c.doMultipart(ctx, http.MethodPost, "/employees", fields, photo, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateEmployee sends only the fields set on patch.
func (c *Client) UpdateEmployee(ctx context.Context, id int64, patch employee.EmployeePatch, photo *Photo) (*transport.MessageResponse, error) {
	path := "/employees/" + strconv.FormatInt(id, 10)

	var resp transport.MessageResponse
	if photo == nil {
		if err := c.doJSON(ctx, http.MethodPut, path, true, patch, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	fields := make(map[string]string)
	for column, value := range patch.Columns() {
		fields[column] = fmt.Sprint(value)
	}
	if err := c.doMultipart(ctx, http.MethodPut, path, fields, photo, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListDepartments(ctx context.Context) ([]department.Department, error) {
	var departments []department.Department
	if err := c.doJSON(ctx, http.MethodGet, "/departments", true, nil, &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

func (c *Client) CreateDepartment(ctx context.Context, dto department.CreateDepartmentDTO) (*department.CreateDepartmentResponse, error) {
	var resp department.CreateDepartmentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/departments", true, dto, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateDepartment(ctx context.Context, id int64, patch department.DepartmentPatch) (*transport.MessageResponse, error) {
	var resp transport.MessageResponse
	if err := c.doJSON(ctx, http.MethodPut, "/departments/"+strconv.FormatInt(id, 10), true, patch, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetDepartmentStatus is the list screen's status toggle.
func (c *Client) SetDepartmentStatus(ctx context.Context, id int64, status string) (*transport.MessageResponse, error) {
	return c.UpdateDepartment(ctx, id, department.DepartmentPatch{Status: &status})
}

func (c *Client) AddDepartmentMember(ctx context.Context, departmentID, employeeID int64) (*transport.MessageResponse, error) {
	return c.membership(ctx, http.MethodPut, departmentID, employeeID)
}

func (c *Client) RemoveDepartmentMember(ctx context.Context, departmentID, employeeID int64) (*transport.MessageResponse, error) {
	return c.membership(ctx, http.MethodDelete, departmentID, employeeID)
}

func (c *Client) membership(ctx context.Context, method string, departmentID, employeeID int64) (*transport.MessageResponse, error) {
	path := fmt.Sprintf("/departments/%d/employees/%d", departmentID, employeeID)

	var resp transport.MessageResponse
	if err := c.doJSON(ctx, method, path, true, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, authenticated bool, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, authenticated, reader, contentType, out)
}

func (c *Client) doMultipart(ctx context.Context, method, path string, fields map[string]string, photo *Photo, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	part, err := mw.CreateFormFile("photo", filepath.Base(photo.Filename))
	if err != nil {
		return fmt.Errorf("failed to create photo part: %w", err)
	}
	if _, err := io.Copy(part, photo.Content); err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish form: %w", err)
	}

	return c.do(ctx, method, path, true, &buf, mw.FormDataContentType(), out)
}

func (c *Client) do(ctx context.Context, method, path string, authenticated bool, body io.Reader, contentType string, out any) error {
	token, err := c.tokens.Load()
	if err != nil {
		return err
	}
	if authenticated && token == "" {
		return ErrLoginRequired
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	// Any 401 ends the session. Calls that needed the token report an expired
	// session, the rest keep the server's message (e.g. bad credentials).
	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.tokens.Clear(); err != nil {
			return err
		}
		if authenticated {
			return ErrSessionExpired
		}
		return c.apiError(resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) apiError(resp *http.Response) error {
	var body transport.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = c.Message(i18n.MsgRequestFailed)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
}

func putField(fields map[string]string, name string, value *string) {
	if value != nil {
		fields[name] = *value
	}
}
