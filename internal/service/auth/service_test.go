package auth_test

import (
	"context"
	"errors"
	"testing"

	"f1-penca/internal/model"
	authsvc "f1-penca/internal/service/auth"
	"f1-penca/internal/testutil"
	pkgAuth "f1-penca/pkg/auth"
	appErr "f1-penca/pkg/errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, *authsvc.Service) {
	t.Helper()

	db := testutil.NewDB(t)
	return db, authsvc.NewService(db).WithCost(bcrypt.MinCost)
}

func TestRegisterHashesPasswordAndIssuesToken(t *testing.T) {
	db, svc := newTestService(t)

	res, err := svc.Register(context.Background(), authsvc.RegisterRequest{
		Username: "alice",
		Email:    " Alice@Example.com ",
		Password: "Password123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.User.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", res.User.Email)
	}
	if res.User.Points != 0 {
		t.Fatalf("new user should start at 0 points, got %d", res.User.Points)
	}

	claims, err := pkgAuth.ParseUserToken(res.Token)
	if err != nil {
		t.Fatalf("token should parse: %v", err)
	}
	if claims.SubjectID != res.User.ID {
		t.Fatalf("token subject %d, want %d", claims.SubjectID, res.User.ID)
	}

	var stored model.User
	if err := db.First(&stored, res.User.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.Password == "Password123" {
		t.Fatalf("password stored in clear text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("Password123")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterRejections(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, authsvc.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Password123"}); err != nil {
		t.Fatalf("seed register: %v", err)
	}

	cases := []struct {
		name string
		req  authsvc.RegisterRequest
		want error
	}{
		{"same username", authsvc.RegisterRequest{Username: "alice", Email: "new@example.com", Password: "Password123"}, appErr.ErrUserAlreadyExists},
		{"same email", authsvc.RegisterRequest{Username: "bob", Email: "ALICE@example.com", Password: "Password123"}, appErr.ErrUserAlreadyExists},
		{"short password", authsvc.RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "123"}, appErr.ErrWeakPassword},
		{"missing username", authsvc.RegisterRequest{Email: "dave@example.com", Password: "Password123"}, appErr.ErrInvalidRegistration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	db, svc := newTestService(t)
	user := testutil.CreateUser(t, db, "alice", "Password123")
	ctx := context.Background()

	res, err := svc.Login(ctx, "ALICE@example.com", "Password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.ID != user.ID || res.Token == "" {
		t.Fatalf("unexpected login result %+v", res)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "nope"); !errors.Is(err, appErr.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost@example.com", "Password123"); !errors.Is(err, appErr.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	db, svc := newTestService(t)
	user := testutil.CreateUser(t, db, "alice", "Password123")
	ctx := context.Background()

	if err := svc.UpdatePassword(ctx, user.ID, "wrong", "NewPassword456"); !errors.Is(err, appErr.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := svc.UpdatePassword(ctx, user.ID, "Password123", "abc"); !errors.Is(err, appErr.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := svc.UpdatePassword(ctx, 999, "Password123", "NewPassword456"); !errors.Is(err, appErr.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.UpdatePassword(ctx, user.ID, "Password123", "NewPassword456"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "Password123"); !errors.Is(err, appErr.ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "NewPassword456"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}
