// Package testutil holds fixtures shared by the service and api tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"f1-penca/internal/config"
	"f1-penca/internal/model"
	"f1-penca/internal/repo"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory SQLite database for t, migrated with every
// model. The pool is pinned to one connection so the database outlives
// individual queries and scoped connections behave as they would in production.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	UseTestConfig()
	return db
}

// UseTestConfig installs defaults plus a fixed JWT secret.
func UseTestConfig() {
	cfg := config.Default()
	cfg.JWT.Secret = "test-secret"
	cfg.Sync.Interval = 0
	cfg.Admin = config.AdminSeedConfig{
		DefaultUsername: "bootstrap",
		DefaultPassword: "Bootstrap@123",
	}
	config.GlobalConfig = cfg
}

func CreateUser(t *testing.T, db *gorm.DB, username, password string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	return user
}

func CreateRace(t *testing.T, db *gorm.DB, season, round int, cutoff time.Time) *model.Race {
	t.Helper()

	r := round
	race := &model.Race{
		Season:        season,
		Round:         &r,
		Name:          fmt.Sprintf("Grand Prix %d", round),
		Circuit:       "Circuit",
		Country:       "Country",
		Date:          cutoff.Add(24 * time.Hour),
		BettingCutoff: cutoff,
		Status:        model.RaceStatusUpcoming,
	}
	if err := db.Create(race).Error; err != nil {
		t.Fatalf("failed to insert race: %v", err)
	}
	return race
}

func CreateDriver(t *testing.T, db *gorm.DB, name, team string, number int, active bool) *model.Driver {
	t.Helper()

	n := number
	driver := &model.Driver{
		Name:   name,
		Team:   team,
		Number: &n,
		Active: true,
	}
	if err := db.Create(driver).Error; err != nil {
		t.Fatalf("failed to insert driver: %v", err)
	}
	if !active {
		// gorm skips zero values on create, so the flag is cleared explicitly.
		if err := db.Model(driver).Update("active", false).Error; err != nil {
			t.Fatalf("failed to deactivate driver: %v", err)
		}
		driver.Active = false
	}
	return driver
}
