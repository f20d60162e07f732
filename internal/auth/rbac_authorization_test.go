package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("RBACAuthorization", func() {
	var (
		rbac *RBACAuthorization
		next http.Handler
	)

	ginkgo.BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		rbac = NewRBACAuthorization(logger)
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	serve := func(handler http.Handler, access *Access) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if access != nil {
			req = req.WithContext(ContextWithAccess(req.Context(), access))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.Describe("RequirePermission", func() {
		ginkgo.It("passes with any one of the listed permissions", func() {
			handler := rbac.RequirePermission("manage_users", "view_user")(next)
			access := &Access{Email: "a@example.com", Permissions: []string{"view_user"}}

			rec := serve(handler, access)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("denies without any listed permission", func() {
			handler := rbac.RequirePermission("manage_users")(next)
			access := &Access{Email: "a@example.com", Permissions: []string{"view_user"}}

			rec := serve(handler, access)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			// The body never names the missing permission.
			gomega.Expect(rec.Body.String()).NotTo(gomega.ContainSubstring("manage_users"))
		})

		ginkgo.It("returns unauthorized without a resolved access", func() {
			handler := rbac.RequirePermission("manage_users")(next)

			rec := serve(handler, nil)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Describe("RequireRole", func() {
		ginkgo.It("passes with any one of the listed roles", func() {
			handler := rbac.RequireRole(RoleAdmin, RoleSecretary)(next)
			access := &Access{Email: "a@example.com", Roles: []string{RoleSecretary}}

			rec := serve(handler, access)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("denies a caller with none of the roles", func() {
			handler := rbac.RequireRole(RoleAdmin)(next)
			access := &Access{Email: "a@example.com", Roles: []string{RolePatient}}

			rec := serve(handler, access)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})
	})
})
