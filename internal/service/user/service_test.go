package user_test

import (
	"context"
	"errors"
	"testing"

	"f1-penca/internal/model"
	usersvc "f1-penca/internal/service/user"
	"f1-penca/internal/testutil"
	appErr "f1-penca/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestExistsAndProfile(t *testing.T) {
	db := testutil.NewDB(t)
	svc := usersvc.NewService(db)
	alice := testutil.CreateUser(t, db, "alice", "Password123")
	ctx := context.Background()

	if ok, err := svc.Exists(ctx, alice.ID); err != nil || !ok {
		t.Fatalf("expected alice to exist, got %v %v", ok, err)
	}
	if ok, err := svc.Exists(ctx, 999); err != nil || ok {
		t.Fatalf("expected unknown id to be absent, got %v %v", ok, err)
	}
	if _, err := svc.GetProfile(ctx, 999); !errors.Is(err, appErr.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateProfileUsername(t *testing.T) {
	db := testutil.NewDB(t)
	svc := usersvc.NewService(db)
	alice := testutil.CreateUser(t, db, "alice", "Password123")
	testutil.CreateUser(t, db, "bob", "Password123")
	ctx := context.Background()

	if _, err := svc.UpdateProfile(ctx, alice.ID, usersvc.UpdateProfileRequest{Username: strPtr("bob")}); !errors.Is(err, appErr.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, alice.ID, usersvc.UpdateProfileRequest{Username: strPtr("  ")}); !errors.Is(err, appErr.ErrInvalidRegistration) {
		t.Fatalf("expected blank username to be rejected, got %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, alice.ID, usersvc.UpdateProfileRequest{Username: strPtr(" alice_f1 ")})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Username != "alice_f1" {
		t.Fatalf("expected trimmed username, got %q", updated.Username)
	}

	// an empty request is a read
	same, err := svc.UpdateProfile(ctx, alice.ID, usersvc.UpdateProfileRequest{})
	if err != nil || same.Username != "alice_f1" {
		t.Fatalf("expected unchanged profile, got %+v %v", same, err)
	}
}

func TestLeaderboardSharesRanksOnTies(t *testing.T) {
	db := testutil.NewDB(t)
	svc := usersvc.NewService(db)

	for name, points := range map[string]int64{"carol": 10, "alice": 25, "bob": 25, "dave": 0} {
		u := testutil.CreateUser(t, db, name, "Password123")
		if err := db.Model(&model.User{}).Where("id = ?", u.ID).Update("points", points).Error; err != nil {
			t.Fatalf("set points: %v", err)
		}
	}

	entries, err := svc.Leaderboard(context.Background(), 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	want := []struct {
		name string
		rank int
	}{{"alice", 1}, {"bob", 1}, {"carol", 3}, {"dave", 4}}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].Username != w.name || entries[i].Rank != w.rank {
			t.Fatalf("entry %d: got %s rank %d, want %s rank %d", i, entries[i].Username, entries[i].Rank, w.name, w.rank)
		}
	}

	top, err := svc.Leaderboard(context.Background(), 2)
	if err != nil || len(top) != 2 {
		t.Fatalf("expected limit to apply, got %d entries, %v", len(top), err)
	}
}
