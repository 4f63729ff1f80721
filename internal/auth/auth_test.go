package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"maliyet-backend/internal/config"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	cfg := &config.Config{JWTSecret: testSecret}
	chain := append([]fiber.Handler{JWTMiddleware(cfg)}, handlers...)
	app.Get("/test", chain...)
	return app
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := GenerateToken(testSecret, user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func TestJWTMiddlewareRejects(t *testing.T) {
	app := newTestApp(func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"bad format", "Token abc"},
		{"invalid token", "Bearer invalid_token_xyz"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: request failed: %v", c.name, err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", c.name, resp.StatusCode)
		}
	}
}

func TestJWTMiddlewareSetsLocals(t *testing.T) {
	storeID := uint(7)
	user := &models.User{ID: 3, Email: "m@example.com", Role: models.RoleStoreAdmin, StoreID: &storeID}

	var gotStore uint
	app := newTestApp(func(c *fiber.Ctx) error {
		sid, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		gotStore = sid
		return c.SendStatus(fiber.StatusOK)
	})

	// store_admin başka mağaza isteyemez, token'daki mağaza kullanılır
	req := httptest.NewRequest(http.MethodGet, "/test?store_id=99", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, user))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotStore != 7 {
		t.Fatalf("expected store 7, got %d", gotStore)
	}
}

func TestStoreIDFromQuerySuperAdmin(t *testing.T) {
	user := &models.User{ID: 1, Email: "a@example.com", Role: models.RoleSuperAdmin}
	app := newTestApp(func(c *fiber.Ctx) error {
		sid, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"store_id": sid})
	})

	cases := []struct {
		query  string
		status int
	}{
		{"", fiber.StatusBadRequest},
		{"?store_id=abc", fiber.StatusBadRequest},
		{"?store_id=0", fiber.StatusBadRequest},
		{"?store_id=4", fiber.StatusOK},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/test"+c.query, nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, user))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != c.status {
			t.Errorf("%q: expected %d, got %d", c.query, c.status, resp.StatusCode)
		}
	}
}

func TestRequireRole(t *testing.T) {
	storeID := uint(2)
	app := newTestApp(RequireRole(models.RoleSuperAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	cases := []struct {
		user   *models.User
		status int
	}{
		{&models.User{ID: 1, Role: models.RoleSuperAdmin}, fiber.StatusOK},
		{&models.User{ID: 2, Role: models.RoleStoreAdmin, StoreID: &storeID}, fiber.StatusForbidden},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, c.user))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != c.status {
			t.Errorf("role %s: expected %d, got %d", c.user.Role, c.status, resp.StatusCode)
		}
	}
}

func TestStoreScope(t *testing.T) {
	storeID := uint(7)
	storeAdmin := &models.User{ID: 3, Role: models.RoleStoreAdmin, StoreID: &storeID}
	orphan := &models.User{ID: 4, Role: models.RoleStoreAdmin}
	superAdmin := &models.User{ID: 1, Role: models.RoleSuperAdmin}

	app := newTestApp(StoreScope(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	cases := []struct {
		name   string
		user   *models.User
		query  string
		status int
	}{
		{"own store", storeAdmin, "?store_id=7", fiber.StatusOK},
		{"no store param", storeAdmin, "", fiber.StatusOK},
		{"foreign store", storeAdmin, "?store_id=99", fiber.StatusForbidden},
		{"bad store param", storeAdmin, "?store_id=x", fiber.StatusBadRequest},
		{"token without store", orphan, "", fiber.StatusForbidden},
		{"super admin any store", superAdmin, "?store_id=99", fiber.StatusOK},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/test"+c.query, nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, c.user))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: request failed: %v", c.name, err)
		}
		if resp.StatusCode != c.status {
			t.Errorf("%s: expected %d, got %d", c.name, c.status, resp.StatusCode)
		}
	}
}
