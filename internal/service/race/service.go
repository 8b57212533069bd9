package race

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"f1-penca/internal/model"
	appErr "f1-penca/pkg/errors"
	"f1-penca/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type RaceView struct {
	model.Race
	UserHasBet bool `json:"user_has_bet"`
}

type ResultRow struct {
	Position   int     `json:"position"`
	DriverID   int64   `json:"driver_id"`
	DriverName string  `json:"driver_name"`
	DriverTeam string  `json:"driver_team"`
	Time       *string `json:"time"`
	Points     int     `json:"points"`
}

type RaceResults struct {
	Race       model.Race  `json:"race"`
	Results    []ResultRow `json:"results"`
	Sprint     []ResultRow `json:"sprint"`
	Qualifying []ResultRow `json:"qualifying"`
}

type MutationParams struct {
	Season        int
	Round         *int
	Name          string
	Circuit       string
	Country       string
	Date          time.Time
	BettingCutoff time.Time
	FlagImage     string
	Status        string
}

// ListUpcoming returns every race not yet completed, soonest deadline first,
// flagged with whether userID already holds a bet on it.
func (s *Service) ListUpcoming(ctx context.Context, userID int64) ([]RaceView, error) {
	var races []model.Race
	if err := s.db.WithContext(ctx).
		Where("status <> ?", model.RaceStatusCompleted).
		Order("betting_cutoff ASC").
		Find(&races).Error; err != nil {
		return nil, err
	}
	if len(races) == 0 {
		return []RaceView{}, nil
	}

	ids := make([]int64, 0, len(races))
	for _, r := range races {
		ids = append(ids, r.ID)
	}
	var betRaceIDs []int64
	if err := s.db.WithContext(ctx).
		Model(&model.Bet{}).
		Where("user_id = ? AND race_id IN ?", userID, ids).
		Pluck("race_id", &betRaceIDs).Error; err != nil {
		return nil, err
	}
	hasBet := make(map[int64]bool, len(betRaceIDs))
	for _, id := range betRaceIDs {
		hasBet[id] = true
	}

	views := make([]RaceView, 0, len(races))
	for _, r := range races {
		views = append(views, RaceView{Race: r, UserHasBet: hasBet[r.ID]})
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, userID, raceID int64) (*RaceView, error) {
	race, err := s.load(ctx, raceID)
	if err != nil {
		return nil, err
	}
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&model.Bet{}).
		Where("user_id = ? AND race_id = ?", userID, raceID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	return &RaceView{Race: *race, UserHasBet: count > 0}, nil
}

func (s *Service) Results(ctx context.Context, raceID int64) (*RaceResults, error) {
	race, err := s.load(ctx, raceID)
	if err != nil {
		return nil, err
	}
	out := &RaceResults{Race: *race}
	if out.Results, err = s.resultRows(ctx, "results", raceID); err != nil {
		return nil, err
	}
	if out.Sprint, err = s.resultRows(ctx, "sprint_results", raceID); err != nil {
		return nil, err
	}
	if out.Qualifying, err = s.resultRows(ctx, "qualify_results", raceID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) resultRows(ctx context.Context, table string, raceID int64) ([]ResultRow, error) {
	rows := make([]ResultRow, 0)
	err := s.db.WithContext(ctx).
		Table(table).
		Select(table+".position, "+table+".driver_id, drivers.name AS driver_name, drivers.team AS driver_team, "+table+".time, "+table+".points").
		Joins("JOIN drivers ON drivers.id = "+table+".driver_id").
		Where(table+".race_id = ?", raceID).
		Order(table + ".position ASC").
		Scan(&rows).Error
	return rows, err
}

func (s *Service) load(ctx context.Context, raceID int64) (*model.Race, error) {
	var race model.Race
	if err := s.db.WithContext(ctx).First(&race, raceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrRaceNotFound
		}
		return nil, err
	}
	return &race, nil
}

func (s *Service) CreateRace(ctx context.Context, params MutationParams) (*model.Race, error) {
	if err := validate(&params); err != nil {
		return nil, err
	}
	race := model.Race{
		Season:        params.Season,
		Round:         params.Round,
		Name:          params.Name,
		Circuit:       params.Circuit,
		Country:       params.Country,
		Date:          params.Date,
		BettingCutoff: params.BettingCutoff,
		FlagImage:     params.FlagImage,
		Status:        params.Status,
	}
	if err := s.db.WithContext(ctx).Create(&race).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, appErr.ErrRaceRoundDuplicate
		}
		return nil, err
	}
	logger.Log.Info("race created", zap.Int64("raceID", race.ID), zap.String("name", race.Name))
	return &race, nil
}

func (s *Service) UpdateRace(ctx context.Context, id int64, params MutationParams) (*model.Race, error) {
	if err := validate(&params); err != nil {
		return nil, err
	}
	result := s.db.WithContext(ctx).
		Model(&model.Race{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"season":         params.Season,
			"round":          params.Round,
			"name":           params.Name,
			"circuit":        params.Circuit,
			"country":        params.Country,
			"date":           params.Date,
			"betting_cutoff": params.BettingCutoff,
			"flag_image":     params.FlagImage,
			"status":         params.Status,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, appErr.ErrRaceRoundDuplicate
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, appErr.ErrRaceNotFound
	}
	return s.load(ctx, id)
}

// MarkCompleted moves races to completed; already completed races are left alone.
func (s *Service) MarkCompleted(ctx context.Context, raceIDs []int64) error {
	if len(raceIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&model.Race{}).
		Where("id IN ? AND status <> ?", raceIDs, model.RaceStatusCompleted).
		Updates(map[string]interface{}{
			"status":     model.RaceStatusCompleted,
			"updated_at": time.Now(),
		}).Error
}

func validate(p *MutationParams) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Circuit = strings.TrimSpace(p.Circuit)
	p.Country = strings.TrimSpace(p.Country)
	p.Status = strings.ToLower(strings.TrimSpace(p.Status))
	if p.Status == "" {
		p.Status = model.RaceStatusUpcoming
	}
	switch {
	case p.Name == "" || p.Circuit == "" || p.Country == "":
		return fmt.Errorf("%w: name, circuit and country are required", appErr.ErrInvalidRace)
	case p.Season <= 0:
		return fmt.Errorf("%w: season must be positive", appErr.ErrInvalidRace)
	case p.Round != nil && *p.Round <= 0:
		return fmt.Errorf("%w: round must be positive", appErr.ErrInvalidRace)
	case p.Date.IsZero() || p.BettingCutoff.IsZero():
		return fmt.Errorf("%w: date and betting cutoff are required", appErr.ErrInvalidRace)
	case p.BettingCutoff.After(p.Date):
		return fmt.Errorf("%w: betting cutoff must not be after the race", appErr.ErrInvalidRace)
	}
	switch p.Status {
	case model.RaceStatusUpcoming, model.RaceStatusActive, model.RaceStatusCompleted:
		return nil
	default:
		return fmt.Errorf("%w: unknown status", appErr.ErrInvalidRace)
	}
}
