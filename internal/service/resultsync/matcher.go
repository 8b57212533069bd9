package resultsync

import (
	"errors"
	"strconv"
	"strings"

	"f1-penca/internal/model"
	"f1-penca/internal/provider/ergast"
	"f1-penca/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errDriverUnmatched = errors.New("no local driver matches provider entry")

// driverResolver turns provider driver records into local driver ids. Known
// provider ids are answered from the mapping table as long as the mapped
// driver is active; unknown ids fall back to a name/number match among active
// drivers, and a hit is written back as a mapping so the next run resolves it
// by key.
type driverResolver struct {
	conn     *gorm.DB
	mappings map[string]int64
	active   []model.Driver
}

func newDriverResolver(conn *gorm.DB) (*driverResolver, error) {
	var mappings []model.DriverMapping
	if err := conn.Find(&mappings).Error; err != nil {
		return nil, err
	}
	var active []model.Driver
	if err := conn.Where("active = ?", true).Order("id ASC").Find(&active).Error; err != nil {
		return nil, err
	}

	r := &driverResolver{
		conn:     conn,
		mappings: make(map[string]int64, len(mappings)),
		active:   active,
	}
	for _, m := range mappings {
		r.mappings[m.ProviderDriverID] = m.DriverID
	}
	return r, nil
}

func (r *driverResolver) resolve(d ergast.Driver) (int64, error) {
	key := strings.TrimSpace(d.DriverID)
	if key != "" {
		if id, ok := r.mappings[key]; ok {
			// a mapping to a driver that has since been deactivated no longer resolves
			if !r.isActive(id) {
				return 0, errDriverUnmatched
			}
			return id, nil
		}
	}

	match, ok := matchDriver(r.active, d)
	if !ok {
		return 0, errDriverUnmatched
	}
	if key != "" {
		mapping := model.DriverMapping{ProviderDriverID: key, DriverID: match.ID}
		if err := r.conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&mapping).Error; err != nil {
			return 0, err
		}
		r.mappings[key] = match.ID
		logger.Log.Info("driver mapping learned",
			zap.String("providerDriverID", key),
			zap.Int64("driverID", match.ID),
			zap.String("driverName", match.Name))
	}
	return match.ID, nil
}

func (r *driverResolver) isActive(id int64) bool {
	for _, d := range r.active {
		if d.ID == id {
			return true
		}
	}
	return false
}

// matchDriver returns the first driver whose name equals the provider's full
// name ignoring case, or whose car number equals the permanent number.
func matchDriver(drivers []model.Driver, d ergast.Driver) (model.Driver, bool) {
	fullName := strings.TrimSpace(strings.TrimSpace(d.GivenName) + " " + strings.TrimSpace(d.FamilyName))
	number, numErr := strconv.Atoi(strings.TrimSpace(d.PermanentNumber))

	for _, candidate := range drivers {
		if fullName != "" && strings.EqualFold(strings.TrimSpace(candidate.Name), fullName) {
			return candidate, true
		}
		if numErr == nil && candidate.Number != nil && *candidate.Number == number {
			return candidate, true
		}
	}
	return model.Driver{}, false
}
