package settlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"f1-penca/internal/model"
	"f1-penca/internal/service/settlement"
	"f1-penca/internal/testutil"
	appErr "f1-penca/pkg/errors"

	"gorm.io/gorm"
)

type grid struct {
	db    *gorm.DB
	race  *model.Race
	max   *model.Driver
	lando *model.Driver
	oscar *model.Driver
	alice *model.User
	bob   *model.User
}

func newGrid(t *testing.T) *grid {
	t.Helper()

	db := testutil.NewDB(t)
	g := &grid{db: db}
	g.race = testutil.CreateRace(t, db, 2024, 1, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	g.max = testutil.CreateDriver(t, db, "Max Verstappen", "Red Bull", 1, true)
	g.lando = testutil.CreateDriver(t, db, "Lando Norris", "McLaren", 4, true)
	g.oscar = testutil.CreateDriver(t, db, "Oscar Piastri", "McLaren", 81, true)
	g.alice = testutil.CreateUser(t, db, "alice", "Password123")
	g.bob = testutil.CreateUser(t, db, "bob", "Password123")
	return g
}

func (g *grid) bet(t *testing.T, user *model.User, driver *model.Driver) *model.Bet {
	t.Helper()
	b := &model.Bet{UserID: user.ID, RaceID: g.race.ID, DriverID: driver.ID, Status: model.BetStatusPending}
	if err := g.db.Create(b).Error; err != nil {
		t.Fatalf("seed bet: %v", err)
	}
	return b
}

func (g *grid) finish(t *testing.T, order ...*model.Driver) {
	t.Helper()
	points := []int{25, 18, 15, 12}
	for i, d := range order {
		r := &model.Result{RaceID: g.race.ID, DriverID: d.ID, Position: i + 1, Points: points[i]}
		if err := g.db.Create(r).Error; err != nil {
			t.Fatalf("seed result: %v", err)
		}
	}
}

func (g *grid) points(t *testing.T, user *model.User) int64 {
	t.Helper()
	var u model.User
	if err := g.db.First(&u, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return u.Points
}

func TestSettleRaceWinnerPolicy(t *testing.T) {
	g := newGrid(t)
	aliceBet := g.bet(t, g.alice, g.max)
	bobBet := g.bet(t, g.bob, g.lando)
	g.finish(t, g.max, g.lando, g.oscar)

	svc := settlement.NewService(g.db, settlement.WinnerPolicy{}, nil)
	report, err := svc.SettleRace(context.Background(), g.race.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if report.Won != 1 || report.Lost != 1 || report.Policy != "winner" {
		t.Fatalf("unexpected report %+v", report)
	}

	var a, b model.Bet
	g.db.First(&a, aliceBet.ID)
	g.db.First(&b, bobBet.ID)
	if a.Status != model.BetStatusWon || a.PointsEarned != 25 || a.SettledAt == nil {
		t.Fatalf("unexpected winning bet %+v", a)
	}
	if b.Status != model.BetStatusLost || b.PointsEarned != 0 {
		t.Fatalf("unexpected losing bet %+v", b)
	}
	if got := g.points(t, g.alice); got != 25 {
		t.Fatalf("alice should have 25 points, got %d", got)
	}
	if got := g.points(t, g.bob); got != 0 {
		t.Fatalf("bob should have 0 points, got %d", got)
	}
}

func TestSettleRaceCreditsOnce(t *testing.T) {
	g := newGrid(t)
	g.bet(t, g.alice, g.max)
	g.finish(t, g.max, g.lando)

	svc := settlement.NewService(g.db, nil, nil)
	ctx := context.Background()
	if _, err := svc.SettleRace(ctx, g.race.ID); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	report, err := svc.SettleRace(ctx, g.race.ID)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if len(report.Transitions) != 0 {
		t.Fatalf("second settle should not transition bets, got %d", len(report.Transitions))
	}
	if got := g.points(t, g.alice); got != 25 {
		t.Fatalf("points credited more than once: %d", got)
	}
}

func TestSettleRacePodiumPolicy(t *testing.T) {
	g := newGrid(t)
	g.bet(t, g.alice, g.oscar)
	g.bet(t, g.bob, g.lando)
	g.finish(t, g.max, g.lando, g.oscar)

	svc := settlement.NewService(g.db, settlement.PodiumPolicy{}, nil)
	report, err := svc.SettleRace(context.Background(), g.race.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if report.Won != 2 || report.Lost != 0 {
		t.Fatalf("expected both podium bets to win, got %+v", report)
	}
	if got := g.points(t, g.alice); got != 15 {
		t.Fatalf("alice should earn third place points, got %d", got)
	}
	if got := g.points(t, g.bob); got != 18 {
		t.Fatalf("bob should earn second place points, got %d", got)
	}
}

func TestSettleRaceWithoutResults(t *testing.T) {
	g := newGrid(t)
	g.bet(t, g.alice, g.max)
	svc := settlement.NewService(g.db, nil, nil)

	if _, err := svc.SettleRace(context.Background(), g.race.ID); !errors.Is(err, appErr.ErrResultsNotAvailable) {
		t.Fatalf("expected ErrResultsNotAvailable, got %v", err)
	}
	if _, err := svc.SettleRace(context.Background(), 999); !errors.Is(err, appErr.ErrRaceNotFound) {
		t.Fatalf("expected ErrRaceNotFound, got %v", err)
	}

	var pending int64
	g.db.Model(&model.Bet{}).Where("status = ?", model.BetStatusPending).Count(&pending)
	if pending != 1 {
		t.Fatalf("bet should stay pending, got %d pending", pending)
	}
}

func TestSettleReadyOnlyTouchesFinishedRaces(t *testing.T) {
	g := newGrid(t)
	g.bet(t, g.alice, g.max)
	g.finish(t, g.max)

	later := testutil.CreateRace(t, g.db, 2024, 2, time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC))
	if err := g.db.Create(&model.Bet{UserID: g.bob.ID, RaceID: later.ID, DriverID: g.max.ID, Status: model.BetStatusPending}).Error; err != nil {
		t.Fatalf("seed bet: %v", err)
	}

	svc := settlement.NewService(g.db, nil, nil)
	ready, reports, err := svc.SettleReady(context.Background())
	if err != nil {
		t.Fatalf("settle ready: %v", err)
	}
	if len(ready) != 1 || ready[0] != g.race.ID {
		t.Fatalf("expected only race %d to be ready, got %v", g.race.ID, ready)
	}
	if len(reports) != 1 || reports[0].Won != 1 {
		t.Fatalf("unexpected reports %+v", reports)
	}

	var pending int64
	g.db.Model(&model.Bet{}).Where("race_id = ? AND status = ?", later.ID, model.BetStatusPending).Count(&pending)
	if pending != 1 {
		t.Fatalf("bet on unfinished race must stay pending")
	}
}

func TestPolicyByName(t *testing.T) {
	cases := map[string]string{"": "winner", "Winner": "winner", " podium ": "podium"}
	for in, want := range cases {
		p, err := settlement.PolicyByName(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if p.Name() != want {
			t.Fatalf("%q: expected %s, got %s", in, want, p.Name())
		}
	}
	if _, err := settlement.PolicyByName("top10"); !errors.Is(err, appErr.ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}
