package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func requestWithRoles(roles []string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), RolesKey, roles)
	ctx = context.WithValue(ctx, SubjectKey, "user-1")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireRole_Allows(t *testing.T) {
	c, _ := requestWithRoles([]string{"nurse"})
	called := false
	h := RequireRole("nurse", "surgeon")(func(echo.Context) error {
		called = true
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Fatal("next handler should have been called")
	}
}

func TestRequireRole_AdminAlwaysPasses(t *testing.T) {
	c, _ := requestWithRoles([]string{"admin"})
	called := false
	h := RequireRole("surgeon")(func(echo.Context) error {
		called = true
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Fatal("admin should pass any role gate")
	}
}

func TestRequireRole_Forbids(t *testing.T) {
	c, _ := requestWithRoles([]string{"technician"})
	h := RequireRole("surgeon")(func(echo.Context) error { return nil })
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("err = %v, want 403", err)
	}
}

func TestPrimaryRole(t *testing.T) {
	ctx := context.WithValue(context.Background(), RolesKey, []string{"nurse", "technician"})
	if got := PrimaryRole(ctx); got != "nurse" {
		t.Fatalf("PrimaryRole = %q, want nurse", got)
	}
	if got := PrimaryRole(context.Background()); got != "" {
		t.Fatalf("PrimaryRole on empty context = %q, want empty", got)
	}
}
