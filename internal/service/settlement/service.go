package settlement

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
	"gorm.io/gorm/clause"
)

type Service struct {
	db        *gorm.DB
	policy    Policy
	publisher events.Publisher
	now       func() time.Time
}

type Transition struct {
	BetID        int64  `json:"bet_id"`
	UserID       int64  `json:"user_id"`
	RaceID       int64  `json:"race_id"`
	DriverID     int64  `json:"driver_id"`
	Status       string `json:"status"`
	PointsEarned int64  `json:"points_earned"`
}

type Report struct {
	RaceID      int64        `json:"race_id"`
	Policy      string       `json:"policy"`
	Won         int          `json:"won"`
	Lost        int          `json:"lost"`
	Transitions []Transition `json:"transitions"`
}

func NewService(db *gorm.DB, policy Policy, publisher events.Publisher) *Service {
	if policy == nil {
		policy = WinnerPolicy{}
	}
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Service{db: db, policy: policy, publisher: publisher, now: time.Now}
}

// SettleRace resolves every pending bet on the race. A bet only leaves
// pending once, and the user's score is credited in the same transaction as
// that transition, so repeated calls never award points twice.
func (s *Service) SettleRace(ctx context.Context, raceID int64) (*Report, error) {
	report := &Report{RaceID: raceID, Policy: s.policy.Name(), Transitions: make([]Transition, 0)}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var race model.Race
		if err := tx.First(&race, raceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return appErr.ErrRaceNotFound
			}
			return err
		}

		var results []model.Result
		if err := tx.Where("race_id = ?", raceID).Order("position ASC").Find(&results).Error; err != nil {
			return err
		}
		standings, ok := newStandings(results)
		if !ok {
			return appErr.ErrResultsNotAvailable
		}

		var pending []model.Bet
		if err := lockRows(tx).
			Where("race_id = ? AND status = ?", raceID, model.BetStatusPending).
			Order("id ASC").
			Find(&pending).Error; err != nil {
			return err
		}

		now := s.now()
		for _, bet := range pending {
			outcome := s.policy.Evaluate(bet, standings)
			status := model.BetStatusLost
			points := int64(0)
			if outcome.Won {
				status = model.BetStatusWon
				points = outcome.Points
			}

			res := tx.Model(&model.Bet{}).
				Where("id = ? AND status = ?", bet.ID, model.BetStatusPending).
				Updates(map[string]interface{}{
					"status":        status,
					"points_earned": points,
					"settled_at":    now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				// settled by someone else between the read and the update
				continue
			}

			if points != 0 {
				if err := tx.Model(&model.User{}).
					Where("id = ?", bet.UserID).
					Updates(map[string]interface{}{
						"points":     gorm.Expr("points + ?", points),
						"updated_at": now,
					}).Error; err != nil {
					return err
				}
			}

			if outcome.Won {
				report.Won++
			} else {
				report.Lost++
			}
			report.Transitions = append(report.Transitions, Transition{
				BetID:        bet.ID,
				UserID:       bet.UserID,
				RaceID:       bet.RaceID,
				DriverID:     bet.DriverID,
				Status:       status,
				PointsEarned: points,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, t := range report.Transitions {
		metrics.BetsSettled.WithLabelValues(t.Status).Inc()
		if err := s.publisher.Publish(ctx, events.ForUser(t.UserID, events.TypeBetSettled, strconv.FormatInt(t.BetID, 10), t)); err != nil {
			logger.Log.Warn("failed to publish bet settled event", zap.Int64("betID", t.BetID), zap.Error(err))
		}
	}
	if len(report.Transitions) > 0 {
		logger.Log.Info("race settled",
			zap.Int64("raceID", raceID),
			zap.String("policy", report.Policy),
			zap.Int("won", report.Won),
			zap.Int("lost", report.Lost))
	}
	return report, nil
}

// SettleReady settles every race that has a stored winner and still holds
// pending bets. It returns the ids of races whose results are complete enough
// to settle, whether or not any bet changed.
func (s *Service) SettleReady(ctx context.Context) ([]int64, []*Report, error) {
	var raceIDs []int64
	if err := s.db.WithContext(ctx).
		Model(&model.Result{}).
		Where("position = ?", 1).
		Distinct().
		Order("race_id ASC").
		Pluck("race_id", &raceIDs).Error; err != nil {
		return nil, nil, err
	}

	reports := make([]*Report, 0, len(raceIDs))
	for _, id := range raceIDs {
		var pending int64
		if err := s.db.WithContext(ctx).
			Model(&model.Bet{}).
			Where("race_id = ? AND status = ?", id, model.BetStatusPending).
			Count(&pending).Error; err != nil {
			return raceIDs, reports, err
		}
		if pending == 0 {
			continue
		}
		report, err := s.SettleRace(ctx, id)
		if err != nil {
			return raceIDs, reports, err
		}
		reports = append(reports, report)
	}
	return raceIDs, reports, nil
}

// lockRows adds FOR UPDATE where the dialect supports it.
func lockRows(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
