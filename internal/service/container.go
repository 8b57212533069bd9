package service

import (
	"context"

	"f1-penca/internal/config"
	"f1-penca/internal/provider/ergast"
	"f1-penca/internal/service/admin"
	"f1-penca/internal/service/auth"
	"f1-penca/internal/service/bet"
	"f1-penca/internal/service/driver"
	"f1-penca/internal/service/race"
	"f1-penca/internal/service/resultsync"
	"f1-penca/internal/service/settlement"
	"f1-penca/internal/service/user"
	"f1-penca/internal/ws"
	"f1-penca/pkg/events"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Auth       *auth.Service
	User       *user.Service
	Admin      *admin.Service
	Race       *race.Service
	Driver     *driver.Service
	Bet        *bet.Service
	Settlement *settlement.Service
	Sync       *resultsync.Service
	Hub        *ws.Hub
}

// NewContainer wires every service from config.GlobalConfig. Events go to the
// websocket hub and, when given, to sink as well.
func NewContainer(db *gorm.DB, rdb *redis.Client, sink events.Publisher) (*Container, error) {
	conf := config.GlobalConfig

	policy, err := settlement.PolicyByName(conf.Settlement.Policy)
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub()
	var publisher events.Publisher = hub
	if sink != nil {
		publisher = events.Multi{hub, sink}
	}

	raceSvc := race.NewService(db)
	settlementSvc := settlement.NewService(db, policy, publisher)

	provider := ergast.NewClient(ergast.ClientConfig{
		BaseURL:   conf.Provider.BaseURL,
		Timeout:   conf.Provider.Timeout,
		UserAgent: conf.Provider.UserAgent,
	})
	syncSvc := resultsync.NewService(db, provider,
		resultsync.NewRedisLocker(rdb, conf.Sync.LockTTL),
		resultsync.Options{
			PageSize: conf.Provider.PageSize,
			Interval: conf.Sync.Interval,
		}).
		WithSettlement(settlementSvc, raceSvc).
		WithPublisher(publisher)

	return &Container{
		Auth:       auth.NewService(db),
		User:       user.NewService(db),
		Admin:      admin.NewService(db),
		Race:       raceSvc,
		Driver:     driver.NewService(db),
		Bet:        bet.NewService(db, publisher),
		Settlement: settlementSvc,
		Sync:       syncSvc,
		Hub:        hub,
	}, nil
}

func (c *Container) Start(ctx context.Context) error {
	if err := c.Admin.EnsureDefaultAdmin(ctx); err != nil {
		return err
	}
	return c.Sync.Start(ctx)
}
