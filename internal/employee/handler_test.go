package employee_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/frahmantamala/employee-directory/internal/upload"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Employee Handler", func() {
	var (
		mockRepo *MockRepository
		store    *memoryStore
		router   chi.Router
		caller   internal.CurrentUser
		role     internal.Role
	)

	withIdentity := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := internal.ContextWithUser(r.Context(), caller)
			if role != "" {
				ctx = internal.ContextWithRole(ctx, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	do := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	errorBody := func(w *httptest.ResponseRecorder) string {
		var body transport.ErrorResponse
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body.Error
	}

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		store = newMemoryStore()
		caller, role = adminUser, internal.RoleAdmin

		v, err := validation.New(i18n.Default())
		Expect(err).NotTo(HaveOccurred())
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		service := employee.NewService(mockRepo, upload.NewService(store, 1024), plainHasher{}, v,
			internal.EmployeeConfig{DefaultPassword: "123456"}, logger)
		handler := employee.NewHandler(transport.NewBaseHandler(logger, i18n.Default()), service, 1024)

		router = chi.NewRouter()
		router.Use(withIdentity)
		router.Get("/employees", handler.ListEmployees)
		router.Get("/employees/{id}", handler.GetEmployee)
		router.Post("/employees", handler.CreateEmployee)
		router.Put("/employees/{id}", handler.UpdateEmployee)

		mockRepo.AddEmployee(&employee.Employee{ID: 11, UserID: staffUser.ID, Name: "Staff", Status: "active", Username: "staff"})
	})

	Describe("GET /employees", func() {
		It("returns a JSON array", func() {
			w := do(httptest.NewRequest(http.MethodGet, "/employees", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var employees []employee.Employee
			Expect(json.NewDecoder(w.Body).Decode(&employees)).To(Succeed())
			Expect(employees).To(HaveLen(1))
			Expect(employees[0].Username).To(Equal("staff"))
		})

		It("encodes an empty result as []", func() {
			caller, role = internal.CurrentUser{ID: 77}, internal.RoleEmployee

			w := do(httptest.NewRequest(http.MethodGet, "/employees", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(strings.TrimSpace(w.Body.String())).To(Equal("[]"))
		})

		It("rejects a request without a resolved role", func() {
			role = ""

			w := do(httptest.NewRequest(http.MethodGet, "/employees", nil))
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("GET /employees/{id}", func() {
		It("returns 404 for an invisible employee", func() {
			caller, role = internal.CurrentUser{ID: 77}, internal.RoleEmployee

			w := do(httptest.NewRequest(http.MethodGet, "/employees/11", nil))
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(errorBody(w)).To(Equal("employee not found"))
		})

		It("returns 400 for a non numeric id", func() {
			w := do(httptest.NewRequest(http.MethodGet, "/employees/abc", nil))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /employees", func() {
		It("creates from a JSON body and ignores a photo string", func() {
			body := `{"name":"Jane Doe","position":"Engineer","salary":1200.5,"photo":"ignored.png"}`
			req := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			w := do(req)
			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp employee.CreateEmployeeResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Message).To(Equal("employee created"))
			Expect(resp.EmployeeID).To(BeNumerically(">", 0))
			Expect(mockRepo.lastUser.Username).To(Equal("janedoe"))
			Expect(mockRepo.employees[resp.EmployeeID].Photo).To(BeNil())
		})

		It("creates from a multipart form with a photo", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			Expect(mw.WriteField("name", "Form Person")).To(Succeed())
			Expect(mw.WriteField("salary", "3000")).To(Succeed())
			Expect(mw.WriteField("department_ids", "1,2")).To(Succeed())
			part, err := mw.CreateFormFile("photo", "face.jpg")
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write([]byte("jpeg-bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(mw.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/employees", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())

			w := do(req)
			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(mockRepo.lastUser.Username).To(Equal("formperson"))
			Expect(mockRepo.lastDepts).To(Equal([]int64{1, 2}))
			Expect(store.Len()).To(Equal(1))
		})

		It("rejects a non numeric salary in a form", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			Expect(mw.WriteField("name", "Form Person")).To(Succeed())
			Expect(mw.WriteField("salary", "lots")).To(Succeed())
			Expect(mw.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/employees", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())

			w := do(req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(errorBody(w)).To(ContainSubstring("salary"))
		})

		It("reports a missing name", func() {
			req := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(`{"position":"x"}`))
			req.Header.Set("Content-Type", "application/json")

			w := do(req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(errorBody(w)).To(ContainSubstring("name"))
		})

		It("reports a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(`{"name":`))
			req.Header.Set("Content-Type", "application/json")

			w := do(req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(errorBody(w)).To(Equal("invalid request body"))
		})

		It("rejects an upload above the size limit", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			Expect(mw.WriteField("name", "Big Photo")).To(Succeed())
			part, err := mw.CreateFormFile("photo", "big.png")
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write(bytes.Repeat([]byte("x"), 2048))
			Expect(err).NotTo(HaveOccurred())
			Expect(mw.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/employees", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())

			w := do(req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(store.Len()).To(Equal(0))
		})
	})

	Describe("PUT /employees/{id}", func() {
		It("applies a JSON patch", func() {
			req := httptest.NewRequest(http.MethodPut, "/employees/11", strings.NewReader(`{"status":"inactive"}`))
			req.Header.Set("Content-Type", "application/json")

			w := do(req)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp transport.MessageResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Message).To(Equal("employee updated"))
			Expect(mockRepo.updates[11]).To(HaveKeyWithValue("status", "inactive"))
		})

		It("rejects an empty patch", func() {
			req := httptest.NewRequest(http.MethodPut, "/employees/11", strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")

			w := do(req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(errorBody(w)).To(Equal("no fields provided for update"))
		})

		It("returns 404 for an unknown employee", func() {
			req := httptest.NewRequest(http.MethodPut, "/employees/999", strings.NewReader(`{"name":"x"}`))
			req.Header.Set("Content-Type", "application/json")

			w := do(req)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
