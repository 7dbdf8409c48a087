package price

import (
	"context"
	"time"
)

// Point represents a single observed price sample for a market.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// Provider supplies historical price series for a market.
//
// Implementations must return points sorted ascending by timestamp with no
// duplicate timestamps; consumers rely on this ordering and do not re-sort.
type Provider interface {
	// GetPrices returns the price series for the given market covering the
	// last `days` days, oldest first.
	GetPrices(ctx context.Context, market string, days int) ([]Point, error)
}
