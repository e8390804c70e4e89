package department_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
	departmentDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/department"
	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-directory/internal/database"
	"github.com/frahmantamala/employee-directory/internal/department"
	departmentPostgres "github.com/frahmantamala/employee-directory/internal/department/postgres"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Department Handler Integration", func() {
	var (
		db     *database.DB
		router chi.Router
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	listNames := func() []string {
		w := do(http.MethodGet, "/departments", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var departments []department.Department
		Expect(json.NewDecoder(w.Body).Decode(&departments)).To(Succeed())
		names := make([]string, len(departments))
		for i, d := range departments {
			names[i] = d.Name
		}
		return names
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = database.Open(internal.DatabaseConfig{
			Driver:       database.DriverSQLite,
			Source:       ":memory:",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Gorm.AutoMigrate(
			&departmentDatamodel.Department{},
			&employeeDatamodel.Employee{},
			&employeeDatamodel.EmployeeDepartment{},
		)).To(Succeed())

		v, err := validation.New(i18n.Default())
		Expect(err).NotTo(HaveOccurred())

		repo := departmentPostgres.NewDepartmentRepository(db.Gorm)
		service := department.NewService(repo, v, slogger)
		handler := department.NewHandler(transport.NewBaseHandler(slogger, i18n.Default()), service)

		router = chi.NewRouter()
		router.Get("/departments", handler.GetDepartments)
		router.Post("/departments", handler.CreateDepartment)
		router.Put("/departments/{id}", handler.UpdateDepartment)
		router.Put("/departments/{id}/employees/{employeeId}", handler.AddMember)
		router.Delete("/departments/{id}/employees/{employeeId}", handler.RemoveMember)

		for _, name := range []string{"Engineering", "Finance"} {
			Expect(do(http.MethodPost, "/departments", `{"name":"`+name+`"}`).Code).To(Equal(http.StatusCreated))
		}
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	It("should handle GET /departments request successfully", func() {
		Expect(listNames()).To(Equal([]string{"Engineering", "Finance"}))
	})

	It("should return the new id on POST /departments", func() {
		w := do(http.MethodPost, "/departments", `{"name":"Legal","description":"Contracts"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var resp department.CreateDepartmentResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Message).To(Equal("department created"))
		Expect(resp.DepartmentID).To(Equal(int64(3)))
	})

	It("should reject a duplicate name with 400", func() {
		w := do(http.MethodPost, "/departments", `{"name":"Finance"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var body transport.ErrorResponse
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Error).To(Equal("department name already exists"))
	})

	It("should hide deactivated departments and show them again when reactivated", func() {
		Expect(do(http.MethodPut, "/departments/2", `{"status":"inactive"}`).Code).To(Equal(http.StatusOK))
		Expect(listNames()).To(Equal([]string{"Engineering"}))

		Expect(do(http.MethodPut, "/departments/2", `{"status":"active"}`).Code).To(Equal(http.StatusOK))
		Expect(listNames()).To(Equal([]string{"Engineering", "Finance"}))
	})

	It("should return 404 when updating an unknown department", func() {
		Expect(do(http.MethodPut, "/departments/99", `{"name":"Ghost"}`).Code).To(Equal(http.StatusNotFound))
	})

	It("should return 400 for an empty patch", func() {
		Expect(do(http.MethodPut, "/departments/1", `{}`).Code).To(Equal(http.StatusBadRequest))
	})

	It("should manage membership idempotently", func() {
		emp := &employeeDatamodel.Employee{UserID: 1, Name: "Ann", Status: "active"}
		Expect(db.Gorm.Create(emp).Error).To(Succeed())
		path := "/departments/1/employees/" + strconv.FormatInt(emp.ID, 10)

		Expect(do(http.MethodPut, path, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPut, path, "").Code).To(Equal(http.StatusOK))

		var links int64
		Expect(db.Gorm.Model(&employeeDatamodel.EmployeeDepartment{}).Count(&links).Error).To(Succeed())
		Expect(links).To(Equal(int64(1)))

		Expect(do(http.MethodDelete, path, "").Code).To(Equal(http.StatusOK))
		Expect(db.Gorm.Model(&employeeDatamodel.EmployeeDepartment{}).Count(&links).Error).To(Succeed())
		Expect(links).To(BeZero())

		Expect(do(http.MethodPut, "/departments/1/employees/999", "").Code).To(Equal(http.StatusNotFound))
	})
})
