package admin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"f1-penca/internal/config"
	"f1-penca/internal/model"
	adminsvc "f1-penca/internal/service/admin"
	"f1-penca/internal/testutil"
	pkgAuth "f1-penca/pkg/auth"
	appErr "f1-penca/pkg/errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, *adminsvc.Service) {
	t.Helper()

	db := testutil.NewDB(t)
	return db, adminsvc.NewService(db)
}

func createAdmin(t *testing.T, db *gorm.DB, username, password, status string) *model.Admin {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	admin := &model.Admin{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  "Race Control",
		Status:       status,
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("failed to insert admin: %v", err)
	}
	return admin
}

func TestLoginIssuesAdminScopedToken(t *testing.T) {
	db, svc := newTestService(t)
	record := createAdmin(t, db, "steward", "Secret@123", "active")

	resp, err := svc.Login(context.Background(), "steward", "Secret@123")
	if err != nil {
		t.Fatalf("expected login to succeed, got error: %v", err)
	}
	if resp.Admin.ID != record.ID {
		t.Fatalf("expected admin id %d, got %d", record.ID, resp.Admin.ID)
	}

	claims, err := pkgAuth.ParseAdminToken(resp.Token)
	if err != nil {
		t.Fatalf("expected an admin token, got: %v", err)
	}
	if claims.SubjectID != record.ID {
		t.Fatalf("token subject %d, want %d", claims.SubjectID, record.ID)
	}
	if _, err := pkgAuth.ParseUserToken(resp.Token); !errors.Is(err, pkgAuth.ErrWrongScope) {
		t.Fatalf("admin token must not pass as a user token, got: %v", err)
	}

	var stored model.Admin
	if err := db.First(&stored, record.ID).Error; err != nil {
		t.Fatalf("failed to reload admin: %v", err)
	}
	if stored.LastLoginAt == nil || stored.LastLoginAt.Before(time.Now().Add(-5*time.Minute)) {
		t.Fatalf("expected last_login_at to be refreshed, got %v", stored.LastLoginAt)
	}
}

func TestLoginRejections(t *testing.T) {
	db, svc := newTestService(t)
	createAdmin(t, db, "steward", "Secret@123", "active")
	createAdmin(t, db, "retired", "Secret@123", "disabled")

	cases := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"wrong password", "steward", "wrong-password", appErr.ErrInvalidAdminPassword},
		{"blank password", "steward", "  ", appErr.ErrInvalidAdminPassword},
		{"disabled", "retired", "Secret@123", appErr.ErrAdminDisabled},
		{"unknown", "ghost", "whatever", appErr.ErrAdminNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.username, tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got: %v", tc.want, err)
			}
		})
	}
}

func TestExistsOnlyForActiveAdmins(t *testing.T) {
	db, svc := newTestService(t)
	active := createAdmin(t, db, "steward", "Secret@123", "active")
	disabled := createAdmin(t, db, "retired", "Secret@123", "disabled")

	ctx := context.Background()
	if ok, err := svc.Exists(ctx, active.ID); err != nil || !ok {
		t.Fatalf("expected active admin to exist, got %v %v", ok, err)
	}
	if ok, err := svc.Exists(ctx, disabled.ID); err != nil || ok {
		t.Fatalf("expected disabled admin to be rejected, got %v %v", ok, err)
	}
}

func TestEnsureDefaultAdmin(t *testing.T) {
	db, svc := newTestService(t)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := svc.EnsureDefaultAdmin(ctx); err != nil {
			t.Fatalf("bootstrap %d failed: %v", i+1, err)
		}
	}

	var count int64
	if err := db.Model(&model.Admin{}).
		Where("username = ?", config.GlobalConfig.Admin.DefaultUsername).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count admins: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected idempotent bootstrap, got %d admins", count)
	}

	if _, err := svc.Login(ctx, "bootstrap", "Bootstrap@123"); err != nil {
		t.Fatalf("bootstrap credentials should log in: %v", err)
	}
}
