package driver

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

type MutationParams struct {
	Name   string
	Team   string
	Number *int
	Image  string
	Active bool
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) ListActive(ctx context.Context) ([]model.Driver, error) {
	drivers := make([]model.Driver, 0)
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&drivers).Error; err != nil {
		return nil, err
	}
	return drivers, nil
}

func (s *Service) Create(ctx context.Context, params MutationParams) (*model.Driver, error) {
	if err := validateParams(&params); err != nil {
		return nil, err
	}
	d := model.Driver{
		Name:   params.Name,
		Team:   params.Team,
		Number: params.Number,
		Image:  params.Image,
		Active: true,
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, err
	}
	if !params.Active {
		if err := s.db.WithContext(ctx).Model(&d).Update("active", false).Error; err != nil {
			return nil, err
		}
		d.Active = false
	}
	return &d, nil
}

func (s *Service) Update(ctx context.Context, id int64, params MutationParams) (*model.Driver, error) {
	if err := validateParams(&params); err != nil {
		return nil, err
	}
	result := s.db.WithContext(ctx).
		Model(&model.Driver{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":       params.Name,
			"team":       params.Team,
			"number":     params.Number,
			"image":      params.Image,
			"active":     params.Active,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, appErr.ErrDriverNotFound
	}

	var d model.Driver
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// Map registers providerDriverID as an explicit alias for the local driver.
// Re-mapping the same pair is a no-op; mapping an id that already points to
// another driver is rejected.
func (s *Service) Map(ctx context.Context, driverID int64, providerDriverID string) (*model.DriverMapping, error) {
	providerDriverID = strings.TrimSpace(providerDriverID)
	if providerDriverID == "" {
		return nil, fmt.Errorf("%w: provider driver id is required", appErr.ErrInvalidDriver)
	}

	var d model.Driver
	if err := s.db.WithContext(ctx).First(&d, driverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrDriverNotFound
		}
		return nil, err
	}

	var existing model.DriverMapping
	err := s.db.WithContext(ctx).Where("provider_driver_id = ?", providerDriverID).First(&existing).Error
	switch {
	case err == nil && existing.DriverID == driverID:
		return &existing, nil
	case err == nil:
		return nil, appErr.ErrMappingConflict
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	mapping := model.DriverMapping{ProviderDriverID: providerDriverID, DriverID: driverID}
	if err := s.db.WithContext(ctx).Create(&mapping).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, appErr.ErrMappingConflict
		}
		return nil, err
	}
	logger.Log.Info("driver mapping registered",
		zap.Int64("driverID", driverID),
		zap.String("providerDriverID", providerDriverID))
	return &mapping, nil
}

func validateParams(p *MutationParams) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Team = strings.TrimSpace(p.Team)
	p.Image = strings.TrimSpace(p.Image)
	if p.Name == "" || p.Team == "" {
		return fmt.Errorf("%w: name and team are required", appErr.ErrInvalidDriver)
	}
	if p.Number != nil && *p.Number <= 0 {
		return fmt.Errorf("%w: number must be positive", appErr.ErrInvalidDriver)
	}
	return nil
}
