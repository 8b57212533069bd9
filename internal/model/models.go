package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RaceStatusUpcoming  = "upcoming"
	RaceStatusActive    = "active"
	RaceStatusCompleted = "completed"

	BetStatusPending = "pending"
	BetStatusWon     = "won"
	BetStatusLost    = "lost"
)

// Users & admins

type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Points    int64     `gorm:"default:0;not null" json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Admin struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	Status       string `gorm:"default:active;not null"` // active/disabled
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Calendar

type Race struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Season  int       `gorm:"uniqueIndex:idx_races_season_round;not null" json:"season"`
	Round   *int      `gorm:"uniqueIndex:idx_races_season_round" json:"round,omitempty"` // provider round
	Name    string    `gorm:"size:100;not null" json:"name"`
	Circuit string    `gorm:"size:100;not null" json:"circuit"`
	Country string    `gorm:"size:50;not null" json:"country"`
	Date    time.Time `gorm:"not null" json:"date"`
	// BettingCutoff is the single deadline for new bets.
	BettingCutoff time.Time `gorm:"not null;index" json:"betting_cutoff"`
	FlagImage     string    `gorm:"size:255" json:"flag_image"`
	Status        string    `gorm:"size:16;default:upcoming;not null" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Driver struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Team      string    `gorm:"size:100;not null" json:"team"`
	Number    *int      `json:"number,omitempty"`
	Image     string    `gorm:"size:255" json:"image"`
	Active    bool      `gorm:"default:true;not null;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DriverMapping ties a provider driver identifier to a local driver.
type DriverMapping struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderDriverID string    `gorm:"size:64;uniqueIndex;not null" json:"provider_driver_id"`
	DriverID         int64     `gorm:"not null;index" json:"driver_id"`
	Driver           Driver    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// Bets

type Bet struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64      `gorm:"not null;uniqueIndex:idx_bets_user_race" json:"user_id"`
	RaceID       int64      `gorm:"not null;uniqueIndex:idx_bets_user_race;index" json:"race_id"`
	DriverID     int64      `gorm:"not null" json:"driver_id"`
	Status       string     `gorm:"size:16;default:pending;not null" json:"status"`
	PointsEarned int64      `gorm:"default:0;not null" json:"points_earned"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	User   User   `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Race   Race   `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Driver Driver `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// Results. One row per (race, driver, position) in each table.

type Result struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RaceID    int64     `gorm:"not null;uniqueIndex:idx_results_race_driver_pos" json:"race_id"`
	DriverID  int64     `gorm:"not null;uniqueIndex:idx_results_race_driver_pos" json:"driver_id"`
	Position  int       `gorm:"not null;uniqueIndex:idx_results_race_driver_pos" json:"position"`
	Time      *string   `gorm:"size:32" json:"time"`
	Points    int       `gorm:"default:0;not null" json:"points"`
	CreatedAt time.Time `json:"created_at"`

	Driver Driver `json:"-"`
}

type SprintResult struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RaceID    int64     `gorm:"not null;uniqueIndex:idx_sprint_results_race_driver_pos" json:"race_id"`
	DriverID  int64     `gorm:"not null;uniqueIndex:idx_sprint_results_race_driver_pos" json:"driver_id"`
	Position  int       `gorm:"not null;uniqueIndex:idx_sprint_results_race_driver_pos" json:"position"`
	Time      *string   `gorm:"size:32" json:"time"`
	Points    int       `gorm:"default:0;not null" json:"points"`
	CreatedAt time.Time `json:"created_at"`

	Driver Driver `json:"-"`
}

type QualifyResult struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RaceID    int64     `gorm:"not null;uniqueIndex:idx_qualify_results_race_driver_pos" json:"race_id"`
	DriverID  int64     `gorm:"not null;uniqueIndex:idx_qualify_results_race_driver_pos" json:"driver_id"`
	Position  int       `gorm:"not null;uniqueIndex:idx_qualify_results_race_driver_pos" json:"position"`
	Time      *string   `gorm:"size:32" json:"time"`
	Points    int       `gorm:"default:0;not null" json:"points"`
	CreatedAt time.Time `json:"created_at"`

	Driver Driver `json:"-"`
}

// SyncRun records the outcome of one synchronizer invocation.
type SyncRun struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID       string         `gorm:"size:36;uniqueIndex;not null" json:"run_id"`
	Season      int            `gorm:"not null" json:"season"`
	Status      string         `gorm:"size:16;not null" json:"status"` // success/failed
	Error       string         `gorm:"size:512" json:"error,omitempty"`
	SummaryJSON datatypes.JSON `json:"summary"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Admin{},
		&Race{},
		&Driver{},
		&DriverMapping{},
		&Bet{},
		&Result{},
		&SprintResult{},
		&QualifyResult{},
		&SyncRun{},
	}
}
