package collector

import (
	"context"

	"LevelSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
//
// FetchBars returns bars in ascending time order. An empty result with a nil error means the
// source answered but has no bars for the range; any failure to answer is an error.
type Fetcher interface {
	FetchBars(ctx context.Context, req model.BarRequest) ([]model.Bar, error)
	Name() string
}
