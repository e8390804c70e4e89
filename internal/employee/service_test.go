package employee_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"github.com/frahmantamala/employee-directory/internal/upload"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DeriveUsername", func() {
	It("removes whitespace and lowercases", func() {
		Expect(employee.DeriveUsername("Jane Doe", false)).To(Equal("janedoe"))
		Expect(employee.DeriveUsername("  Mary\tAnn  SMITH ", false)).To(Equal("maryannsmith"))
	})

	It("keeps Han characters unless romanization is enabled", func() {
		Expect(employee.DeriveUsername("张 三", false)).To(Equal("张三"))
		Expect(employee.DeriveUsername("张 三", true)).To(Equal("zhangsan"))
		Expect(employee.DeriveUsername("Li 四", true)).To(Equal("lisi"))
	})

	It("returns an empty string for a blank name", func() {
		Expect(employee.DeriveUsername("   ", true)).To(BeEmpty())
	})
})

var _ = Describe("EmployeePatch", func() {
	It("builds columns only for present fields", func() {
		patch := employee.EmployeePatch{Status: strPtr("inactive")}
		Expect(patch.Columns()).To(Equal(map[string]any{"status": "inactive"}))
		Expect(patch.IsEmpty()).To(BeFalse())
	})

	It("is empty when nothing is set", func() {
		Expect(employee.EmployeePatch{}.IsEmpty()).To(BeTrue())
	})
})

var _ = Describe("Employee Service", func() {
	var (
		ctx      context.Context
		mockRepo *MockRepository
		store    *memoryStore
		service  *employee.Service
		cfg      internal.EmployeeConfig
	)

	build := func() {
		v, err := validation.New(i18n.Default())
		Expect(err).NotTo(HaveOccurred())
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		photos := upload.NewService(store, 1024)
		service = employee.NewService(mockRepo, photos, plainHasher{}, v, cfg, logger)
	}

	BeforeEach(func() {
		ctx = context.Background()
		mockRepo = NewMockRepository()
		store = newMemoryStore()
		cfg = internal.EmployeeConfig{DefaultPassword: "123456"}
		build()

		mockRepo.AddEmployee(&employee.Employee{ID: 10, UserID: managerUser.ID, Name: "Manager", Status: "active", Username: "manager"})
		mockRepo.AddEmployee(&employee.Employee{ID: 11, UserID: staffUser.ID, Name: "Staff", Status: "active", Username: "staff"})
		mockRepo.AddEmployee(&employee.Employee{ID: 12, UserID: 4, Name: "Other", Status: "active", Username: "other"})
		mockRepo.Share(managerUser.ID, 10)
		mockRepo.Share(managerUser.ID, 11)
	})

	Describe("List", func() {
		It("returns every employee for an admin", func() {
			employees, err := service.List(ctx, adminUser, internal.RoleAdmin)
			Expect(err).NotTo(HaveOccurred())
			Expect(employees).To(HaveLen(3))
			Expect(mockRepo.calls).To(Equal([]string{"ListAll"}))
		})

		It("scopes a department manager to shared departments", func() {
			employees, err := service.List(ctx, managerUser, internal.RoleDepartmentManager)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.calls).To(Equal([]string{"ListByManager"}))

			ids := make([]int64, len(employees))
			for i, e := range employees {
				ids[i] = e.ID
			}
			Expect(ids).To(ConsistOf(int64(10), int64(11)))
		})

		It("scopes a regular employee to their own record", func() {
			employees, err := service.List(ctx, staffUser, internal.RoleEmployee)
			Expect(err).NotTo(HaveOccurred())
			Expect(employees).To(HaveLen(1))
			Expect(employees[0].UserID).To(Equal(staffUser.ID))
		})

		It("returns an empty list rather than nil", func() {
			employees, err := service.List(ctx, internal.CurrentUser{ID: 99}, internal.RoleEmployee)
			Expect(err).NotTo(HaveOccurred())
			Expect(employees).NotTo(BeNil())
			Expect(employees).To(BeEmpty())
		})

		It("wraps repository failures as internal errors", func() {
			mockRepo.SetShouldFail(true, errors.New("database error"))

			employees, err := service.List(ctx, adminUser, internal.RoleAdmin)
			Expect(employees).To(BeNil())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
			Expect(err.Error()).To(ContainSubstring("database error"))
		})
	})

	Describe("Get", func() {
		It("lets an admin see anyone", func() {
			emp, err := service.Get(ctx, adminUser, internal.RoleAdmin, 12)
			Expect(err).NotTo(HaveOccurred())
			Expect(emp.Name).To(Equal("Other"))
		})

		It("lets a manager see employees in shared departments only", func() {
			emp, err := service.Get(ctx, managerUser, internal.RoleDepartmentManager, 11)
			Expect(err).NotTo(HaveOccurred())
			Expect(emp.ID).To(Equal(int64(11)))

			_, err = service.Get(ctx, managerUser, internal.RoleDepartmentManager, 12)
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
		})

		It("hides other employees from a regular employee", func() {
			_, err := service.Get(ctx, staffUser, internal.RoleEmployee, 12)
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))

			emp, err := service.Get(ctx, staffUser, internal.RoleEmployee, 11)
			Expect(err).NotTo(HaveOccurred())
			Expect(emp.Username).To(Equal("staff"))
		})

		It("returns not found for unknown ids", func() {
			_, err := service.Get(ctx, adminUser, internal.RoleAdmin, 404)
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
		})
	})

	Describe("Create", func() {
		It("derives the username and uses the default password", func() {
			id, err := service.Create(ctx, employee.CreateEmployeeDTO{
				Name:          "Jane Doe",
				Position:      strPtr("Engineer"),
				Salary:        floatPtr(5000),
				DepartmentIDs: []int64{1, 2},
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(BeNumerically(">", 0))

			Expect(mockRepo.lastUser.Username).To(Equal("janedoe"))
			Expect(mockRepo.lastUser.Password).To(Equal("hashed:123456"))
			Expect(mockRepo.lastDepts).To(Equal([]int64{1, 2}))
			Expect(mockRepo.employees[id].Status).To(Equal(employee.StatusActive))
			Expect(mockRepo.employees[id].Photo).To(BeNil())
		})

		It("romanizes Chinese names when configured", func() {
			cfg.RomanizeUsernames = true
			build()

			_, err := service.Create(ctx, employee.CreateEmployeeDTO{Name: "王 五"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.lastUser.Username).To(Equal("wangwu"))
		})

		It("requires a name", func() {
			_, err := service.Create(ctx, employee.CreateEmployeeDTO{Name: "   "}, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingField))
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("rejects a negative salary", func() {
			_, err := service.Create(ctx, employee.CreateEmployeeDTO{Name: "Bob", Salary: floatPtr(-1)}, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("rejects a malformed date", func() {
			_, err := service.Create(ctx, employee.CreateEmployeeDTO{Name: "Bob", Birthday: strPtr("01/02/1990")}, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("rejects a username that already exists", func() {
			_, err := service.Create(ctx, employee.CreateEmployeeDTO{Name: "Staff"}, nil)
			Expect(err).To(MatchError(internal.ErrDuplicateUser))
		})

		It("stores the photo under a generated name", func() {
			id, err := service.Create(ctx, employee.CreateEmployeeDTO{Name: "Pic Person"}, photoFile("me.PNG", "png-bytes"))
			Expect(err).NotTo(HaveOccurred())

			photo := mockRepo.employees[id].Photo
			Expect(photo).NotTo(BeNil())
			Expect(*photo).To(MatchRegexp(`^\d+-[0-9a-f]{12}\.png$`))
			Expect(store.objects).To(HaveKey(*photo))
		})

		It("refuses photos that are not images", func() {
			_, err := service.Create(ctx, employee.CreateEmployeeDTO{Name: "Pic Person"}, photoFile("cv.pdf", "%PDF"))
			Expect(err).To(MatchError(internal.ErrInvalidFileType))
			Expect(store.Len()).To(Equal(0))
		})

		It("removes the stored photo when the insert fails", func() {
			mockRepo.createErr = errors.New("insert failed")

			_, err := service.Create(ctx, employee.CreateEmployeeDTO{Name: "Pic Person"}, photoFile("me.jpg", "jpg-bytes"))
			Expect(err).To(HaveOccurred())
			Expect(store.Len()).To(Equal(0))
			Expect(store.removed).To(HaveLen(1))
		})

		It("passes department lookup failures through", func() {
			mockRepo.createErr = internal.ErrDepartmentNotFound

			_, err := service.Create(ctx, employee.CreateEmployeeDTO{Name: "Lost", DepartmentIDs: []int64{42}}, nil)
			Expect(err).To(MatchError(internal.ErrDepartmentNotFound))
		})
	})

	Describe("Update", func() {
		It("returns not found for unknown ids", func() {
			err := service.Update(ctx, 404, employee.EmployeePatch{Name: strPtr("X")}, nil)
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
		})

		It("rejects an empty patch", func() {
			err := service.Update(ctx, 11, employee.EmployeePatch{}, nil)
			Expect(err).To(MatchError(internal.ErrNoFieldsProvided))
			Expect(mockRepo.updates).To(BeEmpty())
		})

		It("changes only the status column and refreshes updated_at", func() {
			err := service.Update(ctx, 11, employee.EmployeePatch{Status: strPtr("inactive")}, nil)
			Expect(err).NotTo(HaveOccurred())

			cols := mockRepo.updates[11]
			Expect(cols).To(HaveLen(2))
			Expect(cols).To(HaveKeyWithValue("status", "inactive"))
			Expect(cols).To(HaveKey("updated_at"))
		})

		It("rejects an unknown status", func() {
			err := service.Update(ctx, 11, employee.EmployeePatch{Status: strPtr("retired")}, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("accepts a photo as the only change and removes the old one", func() {
			mockRepo.employees[11].Photo = strPtr("old.png")
			store.objects["old.png"] = []byte("old")

			err := service.Update(ctx, 11, employee.EmployeePatch{}, photoFile("new.webp", "webp"))
			Expect(err).NotTo(HaveOccurred())

			cols := mockRepo.updates[11]
			Expect(cols).To(HaveKey("photo"))
			Expect(store.objects).NotTo(HaveKey("old.png"))
			Expect(store.objects).To(HaveKey(cols["photo"]))
		})

		It("wraps repository failures", func() {
			mockRepo.employees[11].Photo = nil
			err := service.Update(ctx, 11, employee.EmployeePatch{Position: strPtr("Lead")}, nil)
			Expect(err).NotTo(HaveOccurred())

			mockRepo.SetShouldFail(true, errors.New("update failed"))
			err = service.Update(ctx, 11, employee.EmployeePatch{Position: strPtr("Lead")}, nil)
			Expect(err).To(HaveOccurred())
		})
	})
})
