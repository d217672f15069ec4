package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"outdial-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveWithIdentity(t *testing.T, userID, workspaceID, role string, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), userID, workspaceID, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, RequireWorkspace(), RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_AllowedRolePasses(t *testing.T) {
	if code := serveWithIdentity(t, "u", "w", RoleAgent, RoleOwner, RoleAgent); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	if code := serveWithIdentity(t, "u", "w", RoleSuperAdmin, RoleOwner); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DisallowedRoleForbidden(t *testing.T) {
	if code := serveWithIdentity(t, "u", "w", RoleAnalyst, RoleOwner, RoleAgent); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_WorkspaceRequired(t *testing.T) {
	if code := serveWithIdentity(t, "u", "", RoleOwner, RoleOwner); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}
