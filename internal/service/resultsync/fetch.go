package resultsync

import (
	"context"
	"fmt"

	"f1-penca/internal/provider/ergast"
	appErr "f1-penca/pkg/errors"
	"f1-penca/pkg/logger"

	"go.uber.org/zap"
)

const defaultPageSize = 100

// Fetcher is the slice of the provider client the synchronizer needs.
type Fetcher interface {
	FetchPage(ctx context.Context, category ergast.Category, season, limit, offset int) (*ergast.Page, error)
}

// fetchAll walks every page of category for season. The total is taken from
// the first page; a first page without races fails the whole category.
func fetchAll(ctx context.Context, f Fetcher, category ergast.Category, season, pageSize int) ([]ergast.Race, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	first, err := f.FetchPage(ctx, category, season, pageSize, 0)
	if err != nil {
		return nil, err
	}
	if len(first.Races) == 0 {
		return nil, fmt.Errorf("%w: %s for season %d", appErr.ErrNoResults, category, season)
	}

	races := append([]ergast.Race(nil), first.Races...)
	total := first.Total
	for offset := pageSize; offset < total; offset += pageSize {
		page, err := f.FetchPage(ctx, category, season, pageSize, offset)
		if err != nil {
			return nil, err
		}
		races = append(races, page.Races...)
	}

	logger.Log.Debug("provider category fetched",
		zap.String("category", string(category)),
		zap.Int("season", season),
		zap.Int("total", total),
		zap.Int("races", len(races)))
	return races, nil
}
