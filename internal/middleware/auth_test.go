package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"f1-penca/internal/middleware"
	"f1-penca/internal/testutil"
	pkgAuth "f1-penca/pkg/auth"

	"github.com/gin-gonic/gin"
)

type stubChecker map[int64]bool

func (s stubChecker) Exists(_ context.Context, id int64) (bool, error) {
	return s[id], nil
}

func newEngine(users, admins stubChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", middleware.AuthRequired(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetInt64(middleware.ContextUserIDKey)})
	})
	r.GET("/admin", middleware.AdminAuthRequired(admins), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doGet(r http.Handler, path, auth string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthRequired(t *testing.T) {
	testutil.UseTestConfig()
	r := newEngine(stubChecker{7: true}, stubChecker{1: true})

	valid, _, err := pkgAuth.GenerateToken(7, "alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	orphan, _, err := pkgAuth.GenerateToken(8, "ghost")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	adminToken, _, err := pkgAuth.GenerateAdminToken(1, "root")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	cases := []struct {
		name string
		path string
		auth string
		want int
	}{
		{"valid user token", "/me", "Bearer " + valid, http.StatusOK},
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + valid, http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"deleted user", "/me", "Bearer " + orphan, http.StatusUnauthorized},
		{"admin token on user route", "/me", "Bearer " + adminToken, http.StatusUnauthorized},
		{"admin token", "/admin", "Bearer " + adminToken, http.StatusOK},
		{"user token on admin route", "/admin", "Bearer " + valid, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := doGet(r, tc.path, tc.auth); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
