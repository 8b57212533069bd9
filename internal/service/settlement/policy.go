package settlement

import (
	"fmt"
	"strings"

	"f1-penca/internal/model"
	appErr "f1-penca/pkg/errors"
)

// Standings is the finishing order of one race as stored locally.
type Standings struct {
	Winner   model.Result
	ByDriver map[int64]model.Result
}

func newStandings(results []model.Result) (Standings, bool) {
	st := Standings{ByDriver: make(map[int64]model.Result, len(results))}
	found := false
	for _, r := range results {
		if r.Position == 1 && !found {
			st.Winner = r
			found = true
		}
		if prev, ok := st.ByDriver[r.DriverID]; !ok || r.Position < prev.Position {
			st.ByDriver[r.DriverID] = r
		}
	}
	return st, found
}

type Outcome struct {
	Won    bool
	Points int64
}

// Policy decides how a single pending bet resolves against the standings.
type Policy interface {
	Name() string
	Evaluate(bet model.Bet, standings Standings) Outcome
}

// WinnerPolicy pays the winner's awarded points when the picked driver won.
type WinnerPolicy struct{}

func (WinnerPolicy) Name() string { return "winner" }

func (WinnerPolicy) Evaluate(bet model.Bet, st Standings) Outcome {
	if bet.DriverID != st.Winner.DriverID {
		return Outcome{}
	}
	return Outcome{Won: true, Points: int64(st.Winner.Points)}
}

// PodiumPolicy counts a bet as won when the picked driver finished in the top
// three and pays that driver's awarded points.
type PodiumPolicy struct{}

func (PodiumPolicy) Name() string { return "podium" }

func (PodiumPolicy) Evaluate(bet model.Bet, st Standings) Outcome {
	r, ok := st.ByDriver[bet.DriverID]
	if !ok || r.Position < 1 || r.Position > 3 {
		return Outcome{}
	}
	return Outcome{Won: true, Points: int64(r.Points)}
}

func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "winner":
		return WinnerPolicy{}, nil
	case "podium":
		return PodiumPolicy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", appErr.ErrUnknownPolicy, name)
	}
}
