package bet

import (
	"context"
	"errors"
	"strconv"
	"time"

	"f1-penca/internal/model"
	appErr "f1-penca/pkg/errors"
	"f1-penca/pkg/events"
	"f1-penca/pkg/logger"
	"f1-penca/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the bet ledger. It admits at most one bet per user and race and
// refuses bets once the race's betting cutoff has been reached.
type Service struct {
	db        *gorm.DB
	publisher events.Publisher
	now       func() time.Time
}

type PlacedBet struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	RaceID       int64     `json:"race_id"`
	DriverID     int64     `json:"driver_id"`
	DriverName   string    `json:"driver_name"`
	Status       string    `json:"status"`
	PointsEarned int64     `json:"points_earned"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserBet struct {
	ID           int64      `json:"id"`
	RaceID       int64      `json:"race_id"`
	DriverID     int64      `json:"driver_id"`
	Status       string     `json:"status"`
	PointsEarned int64      `json:"points_earned"`
	CreatedAt    time.Time  `json:"created_at"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
	DriverName   string     `json:"driver_name"`
	DriverTeam   string     `json:"driver_team"`
	RaceName     string     `json:"race_name"`
	RaceDate     time.Time  `json:"race_date"`
}

func NewService(db *gorm.DB, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Service{db: db, publisher: publisher, now: time.Now}
}

// WithClock replaces the time source used for the cutoff check.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) PlaceBet(ctx context.Context, userID, raceID, driverID int64) (*PlacedBet, error) {
	placed, err := s.placeBet(ctx, userID, raceID, driverID)
	if err != nil {
		metrics.BetsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}
	metrics.BetsPlaced.Inc()

	if err := s.publisher.Publish(ctx, events.ForUser(placed.UserID, events.TypeBetPlaced, strconv.FormatInt(placed.ID, 10), placed)); err != nil {
		logger.Log.Warn("failed to publish bet placed event", zap.Int64("betID", placed.ID), zap.Error(err))
	}
	return placed, nil
}

func (s *Service) placeBet(ctx context.Context, userID, raceID, driverID int64) (*PlacedBet, error) {
	db := s.db.WithContext(ctx)

	var race model.Race
	if err := db.First(&race, raceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrBettingClosed
		}
		return nil, err
	}
	if !s.now().Before(race.BettingCutoff) {
		return nil, appErr.ErrBettingClosed
	}

	var existing int64
	if err := db.Model(&model.Bet{}).
		Where("user_id = ? AND race_id = ?", userID, raceID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, appErr.ErrAlreadyBet
	}

	var driver model.Driver
	if err := db.First(&driver, driverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrDriverNotFound
		}
		return nil, err
	}

	bet := model.Bet{
		UserID:   userID,
		RaceID:   raceID,
		DriverID: driverID,
		Status:   model.BetStatusPending,
	}
	if err := db.Create(&bet).Error; err != nil {
		// a concurrent request won the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, appErr.ErrAlreadyBet
		}
		return nil, err
	}

	logger.Log.Info("bet placed",
		zap.Int64("betID", bet.ID),
		zap.Int64("userID", userID),
		zap.Int64("raceID", raceID),
		zap.Int64("driverID", driverID))

	return &PlacedBet{
		ID:           bet.ID,
		UserID:       bet.UserID,
		RaceID:       bet.RaceID,
		DriverID:     bet.DriverID,
		DriverName:   driver.Name,
		Status:       bet.Status,
		PointsEarned: bet.PointsEarned,
		CreatedAt:    bet.CreatedAt,
	}, nil
}

const userBetColumns = "bets.id, bets.race_id, bets.driver_id, bets.status, bets.points_earned, bets.created_at, bets.settled_at, " +
	"drivers.name AS driver_name, drivers.team AS driver_team, races.name AS race_name, races.date AS race_date"

// ListForUser returns the user's bets, most recent race first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]UserBet, error) {
	bets := make([]UserBet, 0)
	err := s.db.WithContext(ctx).
		Table("bets").
		Select(userBetColumns).
		Joins("JOIN drivers ON drivers.id = bets.driver_id").
		Joins("JOIN races ON races.id = bets.race_id").
		Where("bets.user_id = ?", userID).
		Order("races.date DESC").
		Scan(&bets).Error
	if err != nil {
		return nil, err
	}
	return bets, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, appErr.ErrBettingClosed):
		return "betting_closed"
	case errors.Is(err, appErr.ErrAlreadyBet):
		return "already_bet"
	case errors.Is(err, appErr.ErrDriverNotFound):
		return "driver_not_found"
	default:
		return "internal"
	}
}
