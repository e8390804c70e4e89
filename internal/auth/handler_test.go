package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

type stubResolver struct {
	roles map[int64]internal.Role
	err   error
}

func (s *stubResolver) ResolveRole(_ context.Context, userID int64) (internal.Role, error) {
	if s.err != nil {
		return "", s.err
	}
	role, ok := s.roles[userID]
	if !ok {
		return "", internal.ErrNoRoleAssigned
	}
	return role, nil
}

func decodeBody(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
	return body
}

var _ = ginkgo.Describe("Handler", func() {
	var (
		repo    *mockUserRepository
		tokens  *JWTTokenGenerator
		handler *Handler
	)

	post := func(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.RemoteAddr = "192.168.1.20:52311"
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	ginkgo.BeforeEach(func() {
		repo = newMockUserRepository()
		tokens = NewJWTTokenGenerator(testSecret, time.Hour)
		base := transport.NewBaseHandler(discardLogger(), i18n.Default())
		svc := NewService(repo, tokens, newTestValidator(), nil, bcrypt.MinCost, discardLogger())
		handler = NewHandler(base, svc)
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should return the token and user", func() {
			rec := post(handler.Login, `{"username":"admin","password":"123456"}`)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			var resp LoginResponse
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Message).To(gomega.Equal(i18n.Default().Message(i18n.MsgLoginSucceeded, "")))
			gomega.Expect(resp.Token).NotTo(gomega.BeEmpty())
			gomega.Expect(resp.User.Username).To(gomega.Equal("admin"))
		})

		ginkgo.It("should answer 401 on bad credentials", func() {
			rec := post(handler.Login, `{"username":"admin","password":"nope"}`)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(decodeBody(rec)).To(gomega.HaveKeyWithValue("error", "invalid username or password"))
		})

		ginkgo.It("should answer 400 on malformed JSON", func() {
			rec := post(handler.Login, `{"username":`)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(decodeBody(rec)).To(gomega.HaveKeyWithValue("error", "invalid request body"))
		})
	})

	ginkgo.Describe("Register", func() {
		ginkgo.It("should create the user", func() {
			rec := post(handler.Register, `{"username":"janedoe","password":"secret","email":"jane@example.com"}`)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))

			var resp RegisterResponse
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.UserID).To(gomega.Equal(int64(2)))
		})

		ginkgo.It("should answer 400 for a duplicate username", func() {
			rec := post(handler.Register, `{"username":"admin","password":"secret"}`)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(decodeBody(rec)).To(gomega.HaveKeyWithValue("error", "username or email already exists"))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var (
			seen    internal.CurrentUser
			reached bool
			guarded http.Handler
		)

		call := func(authorization string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
			if authorization != "" {
				req.Header.Set("Authorization", authorization)
			}
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, req)
			return rec
		}

		ginkgo.BeforeEach(func() {
			reached = false
			seen = internal.CurrentUser{}
			guarded = handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				seen, _ = internal.UserFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))
		})

		ginkgo.It("should answer 401 without a token", func() {
			rec := call("")
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(decodeBody(rec)).To(gomega.HaveKeyWithValue("error", "access token is missing"))
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should answer 401 for a non-bearer scheme", func() {
			rec := call("Basic YWRtaW46MTIzNDU2")
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should answer 403 for an invalid token", func() {
			rec := call("Bearer garbage")
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(decodeBody(rec)).To(gomega.HaveKeyWithValue("error", "invalid or expired access token"))
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should store the identity for a valid token", func() {
			token, _, err := tokens.GenerateToken(5, "janedoe")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			rec := call("Bearer " + token)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(seen).To(gomega.Equal(internal.CurrentUser{ID: 5, Username: "janedoe"}))
		})
	})

	ginkgo.Describe("clientIP", func() {
		ginkgo.It("should strip the port", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.1.2.3:4444"
			gomega.Expect(clientIP(req)).To(gomega.Equal("10.1.2.3"))

			req.RemoteAddr = "pipe"
			gomega.Expect(clientIP(req)).To(gomega.Equal("pipe"))
		})
	})
})

var _ = ginkgo.Describe("RBACAuthorization", func() {
	var (
		resolver *stubResolver
		rbac     *RBACAuthorization
	)

	serve := func(userID int64, gate func(http.Handler) http.Handler) (*httptest.ResponseRecorder, internal.Role) {
		var role internal.Role
		final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ = internal.RoleFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if userID > 0 {
			req = req.WithContext(internal.ContextWithUser(req.Context(), internal.CurrentUser{ID: userID}))
		}
		rec := httptest.NewRecorder()
		rbac.ResolveRole(gate(final)).ServeHTTP(rec, req)
		return rec, role
	}

	ginkgo.BeforeEach(func() {
		resolver = &stubResolver{roles: map[int64]internal.Role{
			1: internal.RoleAdmin,
			2: internal.RoleDepartmentManager,
			3: internal.RoleEmployee,
		}}
		rbac = NewRBACAuthorization(transport.NewBaseHandler(discardLogger(), i18n.Default()), resolver)
	})

	ginkgo.It("should reject a request that skipped authentication", func() {
		rec, _ := serve(0, rbac.RequireAdmin())
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should answer 403 for a user without a role", func() {
		rec, _ := serve(9, rbac.RequireManager())
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(decodeBody(rec)).To(gomega.HaveKeyWithValue("error", "user has no role assigned"))
	})

	ginkgo.It("should answer 500 when the lookup fails", func() {
		resolver.err = internal.NewInternalError("failed to resolve role", errors.New("timeout"))
		rec, _ := serve(1, rbac.RequireAdmin())
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
	})

	ginkgo.DescribeTable("gates by role",
		func(userID int64, adminCode, managerCode int) {
			rec, _ := serve(userID, rbac.RequireAdmin())
			gomega.Expect(rec.Code).To(gomega.Equal(adminCode))

			rec, _ = serve(userID, rbac.RequireManager())
			gomega.Expect(rec.Code).To(gomega.Equal(managerCode))
		},
		ginkgo.Entry("admin", int64(1), http.StatusOK, http.StatusOK),
		ginkgo.Entry("department manager", int64(2), http.StatusForbidden, http.StatusOK),
		ginkgo.Entry("employee", int64(3), http.StatusForbidden, http.StatusForbidden),
	)

	ginkgo.It("should expose the resolved role to the handler", func() {
		_, role := serve(2, rbac.RequireRole(internal.RoleDepartmentManager, internal.RoleEmployee))
		gomega.Expect(role).To(gomega.Equal(internal.RoleDepartmentManager))
	})
})
