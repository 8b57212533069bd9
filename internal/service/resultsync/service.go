package resultsync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"f1-penca/internal/model"
	"f1-penca/internal/provider/ergast"
	"f1-penca/internal/service/settlement"
	appErr "f1-penca/pkg/errors"
	"f1-penca/pkg/events"
	"f1-penca/pkg/logger"
	"f1-penca/pkg/metrics"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

var categories = []ergast.Category{
	ergast.CategoryRace,
	ergast.CategorySprint,
	ergast.CategoryQualifying,
}

// Settler settles every race whose results are in.
type Settler interface {
	SettleReady(ctx context.Context) ([]int64, []*settlement.Report, error)
}

// Completer moves races to the completed state.
type Completer interface {
	MarkCompleted(ctx context.Context, raceIDs []int64) error
}

type Options struct {
	PageSize int
	Interval time.Duration
}

type Service struct {
	db        *gorm.DB
	fetcher   Fetcher
	locker    Locker
	settler   Settler
	completer Completer
	publisher events.Publisher
	opts      Options
	now       func() time.Time

	group     singleflight.Group
	startOnce sync.Once
}

type CategorySummary struct {
	Fetched     int     `json:"fetched"`
	Inserted    int     `json:"inserted"`
	Skipped     int     `json:"skipped"`
	Unmatched   int     `json:"unmatched"`
	Unmapped    int     `json:"unmapped"`
	InsertedIDs []int64 `json:"inserted_ids"`
}

type Summary struct {
	RunID           string                      `json:"run_id"`
	Season          int                         `json:"season"`
	StartedAt       time.Time                   `json:"started_at"`
	FinishedAt      time.Time                   `json:"finished_at"`
	Categories      map[string]*CategorySummary `json:"categories"`
	SettledRaces    []int64                     `json:"settled_races"`
	SettlementError string                      `json:"settlement_error,omitempty"`
}

func (s *Summary) category(c ergast.Category) *CategorySummary {
	cs, ok := s.Categories[string(c)]
	if !ok {
		cs = &CategorySummary{InsertedIDs: make([]int64, 0)}
		s.Categories[string(c)] = cs
	}
	return cs
}

func NewService(db *gorm.DB, fetcher Fetcher, locker Locker, opts Options) *Service {
	if locker == nil {
		locker = noopLocker{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	return &Service{
		db:        db,
		fetcher:   fetcher,
		locker:    locker,
		publisher: events.Nop(),
		opts:      opts,
		now:       time.Now,
	}
}

// WithSettlement makes every successful run settle finished races and mark
// them completed.
func (s *Service) WithSettlement(settler Settler, completer Completer) *Service {
	s.settler = settler
	s.completer = completer
	return s
}

func (s *Service) WithPublisher(p events.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithClock replaces the time source; the season synced is the clock's year.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Sync pulls the current season from the provider and stores unseen rows.
// Concurrent callers in the same process share one run; a run held by
// another process yields ErrSyncInProgress. The shared run is detached from
// any single caller's cancellation, so a caller that gives up only stops
// waiting for it.
func (s *Service) Sync(ctx context.Context) (*Summary, error) {
	ch := s.group.DoChan("sync", func() (interface{}, error) {
		return s.run(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Summary), nil
	}
}

func (s *Service) run(ctx context.Context) (*Summary, error) {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		if errors.Is(err, appErr.ErrSyncInProgress) {
			metrics.SyncRuns.WithLabelValues("busy").Inc()
		}
		return nil, err
	}
	defer release()

	startedAt := s.now()
	summary := &Summary{
		RunID:        uuid.NewString(),
		Season:       startedAt.Year(),
		StartedAt:    startedAt,
		Categories:   make(map[string]*CategorySummary, len(categories)),
		SettledRaces: make([]int64, 0),
	}
	for _, c := range categories {
		summary.category(c)
	}

	t0 := time.Now()
	err = s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		// a fresh statement per query, still pinned to the same connection
		return s.syncSeason(ctx, conn.Session(&gorm.Session{NewDB: true}), summary)
	})
	metrics.SyncDuration.Observe(time.Since(t0).Seconds())
	summary.FinishedAt = s.now()

	if err != nil {
		metrics.SyncRuns.WithLabelValues(SyncStatusFailed).Inc()
		s.record(ctx, summary, err)
		logger.Log.Error("result sync failed",
			zap.String("runID", summary.RunID),
			zap.Int("season", summary.Season),
			zap.Error(err))
		return nil, err
	}

	s.settle(ctx, summary)
	metrics.SyncRuns.WithLabelValues(SyncStatusSuccess).Inc()
	s.record(ctx, summary, nil)

	logger.Log.Info("result sync finished",
		zap.String("runID", summary.RunID),
		zap.Int("season", summary.Season),
		zap.Int("inserted", summary.totalInserted()),
		zap.Int("settledRaces", len(summary.SettledRaces)))

	if err := s.publisher.Publish(ctx, events.New(events.TypeResultsSynced, summary.RunID, summary)); err != nil {
		logger.Log.Warn("failed to publish results synced event", zap.String("runID", summary.RunID), zap.Error(err))
	}
	return summary, nil
}

// syncSeason runs entirely on conn. Rows written before a failure stay
// committed.
func (s *Service) syncSeason(ctx context.Context, conn *gorm.DB, summary *Summary) error {
	rounds, err := loadRounds(conn, summary.Season)
	if err != nil {
		return err
	}
	resolver, err := newDriverResolver(conn)
	if err != nil {
		return err
	}

	for _, c := range categories {
		races, err := fetchAll(ctx, s.fetcher, c, summary.Season, s.opts.PageSize)
		if err != nil {
			return err
		}
		if err := s.store(conn, c, races, rounds, resolver, summary.category(c)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) store(conn *gorm.DB, c ergast.Category, races []ergast.Race, rounds map[int]int64, resolver *driverResolver, cs *CategorySummary) error {
	for _, race := range races {
		entries := race.Entries(c)
		cs.Fetched += len(entries)

		round, convErr := strconv.Atoi(strings.TrimSpace(race.Round))
		raceID, ok := rounds[round]
		if convErr != nil || !ok {
			cs.Unmapped += len(entries)
			metrics.ResultsUnmatched.WithLabelValues(string(c), "round").Add(float64(len(entries)))
			logger.Log.Warn("no local race for provider round",
				zap.String("category", string(c)),
				zap.String("season", race.Season),
				zap.String("round", race.Round),
				zap.String("raceName", race.RaceName))
			continue
		}

		for _, entry := range entries {
			driverID, err := resolver.resolve(entry.Driver)
			if errors.Is(err, errDriverUnmatched) {
				cs.Unmatched++
				metrics.ResultsUnmatched.WithLabelValues(string(c), "driver").Inc()
				logger.Log.Warn("no local driver for provider entry",
					zap.String("category", string(c)),
					zap.Int64("raceID", raceID),
					zap.String("providerDriverID", entry.Driver.DriverID),
					zap.String("givenName", entry.Driver.GivenName),
					zap.String("familyName", entry.Driver.FamilyName),
					zap.String("permanentNumber", entry.Driver.PermanentNumber))
				continue
			}
			if err != nil {
				return err
			}

			values, err := rowFromEntry(c, raceID, driverID, entry)
			if err != nil {
				return err
			}
			id, inserted, err := insertIfAbsent(conn, values)
			if err != nil {
				return err
			}
			if !inserted {
				cs.Skipped++
				continue
			}
			cs.Inserted++
			cs.InsertedIDs = append(cs.InsertedIDs, id)
			metrics.ResultsInserted.WithLabelValues(string(c)).Inc()
		}
	}
	return nil
}

func (s *Service) settle(ctx context.Context, summary *Summary) {
	if s.settler == nil {
		return
	}
	raceIDs, _, err := s.settler.SettleReady(ctx)
	if err != nil {
		summary.SettlementError = err.Error()
		logger.Log.Error("post-sync settlement failed", zap.String("runID", summary.RunID), zap.Error(err))
	}
	if len(raceIDs) == 0 {
		return
	}
	summary.SettledRaces = raceIDs
	if s.completer != nil {
		if err := s.completer.MarkCompleted(ctx, raceIDs); err != nil {
			logger.Log.Warn("failed to mark races completed", zap.Int64s("raceIDs", raceIDs), zap.Error(err))
		}
	}
}

func (s *Service) record(ctx context.Context, summary *Summary, runErr error) {
	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(summary)
	if err != nil {
		logger.Log.Warn("failed to encode sync summary", zap.Error(err))
		raw = []byte("{}")
	}
	run := model.SyncRun{
		RunID:       summary.RunID,
		Season:      summary.Season,
		Status:      SyncStatusSuccess,
		SummaryJSON: datatypes.JSON(raw),
		StartedAt:   summary.StartedAt,
		FinishedAt:  summary.FinishedAt,
	}
	if runErr != nil {
		run.Status = SyncStatusFailed
		run.Error = truncate(runErr.Error(), 512)
	}
	// recorded even if the request context is gone
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&run).Error; err != nil {
		logger.Log.Warn("failed to record sync run", zap.String("runID", summary.RunID), zap.Error(err))
	}
}

// LastRun returns the most recent recorded run, or nil when none exists.
func (s *Service) LastRun(ctx context.Context) (*model.SyncRun, error) {
	var run model.SyncRun
	err := s.db.WithContext(ctx).Order("id DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Start launches the periodic sync loop; a zero interval disables it.
func (s *Service) Start(ctx context.Context) error {
	if s.opts.Interval <= 0 {
		return nil
	}
	s.startOnce.Do(func() {
		go s.loop(ctx)
	})
	return nil
}

func (s *Service) loop(ctx context.Context) {
	logger.Log.Info("result sync scheduler started", zap.Duration("interval", s.opts.Interval))

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("result sync scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				if errors.Is(err, appErr.ErrSyncInProgress) {
					logger.Log.Info("scheduled sync skipped; another run holds the lock")
					continue
				}
				logger.Log.Warn("scheduled sync error", zap.Error(err))
			}
		}
	}
}

func (s *Summary) totalInserted() int {
	n := 0
	for _, cs := range s.Categories {
		n += cs.Inserted
	}
	return n
}

func loadRounds(conn *gorm.DB, season int) (map[int]int64, error) {
	var races []model.Race
	if err := conn.Where("season = ? AND round IS NOT NULL", season).Find(&races).Error; err != nil {
		return nil, err
	}
	rounds := make(map[int]int64, len(races))
	for _, r := range races {
		rounds[*r.Round] = r.ID
	}
	return rounds, nil
}

type rowValues struct {
	category ergast.Category
	raceID   int64
	driverID int64
	position int
	time     *string
	points   int
}

func rowFromEntry(c ergast.Category, raceID, driverID int64, e ergast.Result) (rowValues, error) {
	position, err := strconv.Atoi(strings.TrimSpace(e.Position))
	if err != nil {
		return rowValues{}, fmt.Errorf("%w: malformed position %q", appErr.ErrProviderFailure, e.Position)
	}
	points, err := parsePoints(e.Points)
	if err != nil {
		return rowValues{}, err
	}
	v := rowValues{
		category: c,
		raceID:   raceID,
		driverID: driverID,
		position: position,
		points:   points,
	}
	if c == ergast.CategoryQualifying {
		v.time = qualifyingTime(e)
	} else {
		v.time = fastestLapTime(e)
	}
	return v, nil
}

// parsePoints truncates fractional awards such as half points.
func parsePoints(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed points %q", appErr.ErrProviderFailure, raw)
	}
	return int(f), nil
}

func fastestLapTime(e ergast.Result) *string {
	if e.FastestLap == nil || e.FastestLap.Time == nil || e.FastestLap.Time.Time == "" {
		return nil
	}
	t := e.FastestLap.Time.Time
	return &t
}

func qualifyingTime(e ergast.Result) *string {
	for _, t := range []string{e.Q3, e.Q2, e.Q1} {
		if t = strings.TrimSpace(t); t != "" {
			return &t
		}
	}
	return nil
}

// newRow returns the model to insert and a pointer to its id.
func (v rowValues) newRow() (interface{}, *int64) {
	switch v.category {
	case ergast.CategorySprint:
		row := &model.SprintResult{RaceID: v.raceID, DriverID: v.driverID, Position: v.position, Time: v.time, Points: v.points}
		return row, &row.ID
	case ergast.CategoryQualifying:
		row := &model.QualifyResult{RaceID: v.raceID, DriverID: v.driverID, Position: v.position, Time: v.time, Points: v.points}
		return row, &row.ID
	default:
		row := &model.Result{RaceID: v.raceID, DriverID: v.driverID, Position: v.position, Time: v.time, Points: v.points}
		return row, &row.ID
	}
}

// insertIfAbsent skips rows already present for (race, driver, position).
// The unique index turns a lost race against a concurrent writer into a no-op.
func insertIfAbsent(conn *gorm.DB, v rowValues) (int64, bool, error) {
	row, id := v.newRow()

	var count int64
	if err := conn.Model(row).
		Where("race_id = ? AND driver_id = ? AND position = ?", v.raceID, v.driverID, v.position).
		Count(&count).Error; err != nil {
		return 0, false, err
	}
	if count > 0 {
		return 0, false, nil
	}

	res := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return *id, true, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
