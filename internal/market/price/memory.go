package price

import (
	"context"
)

// StaticProvider serves a fixed, preloaded price series. It is used by the
// one-shot CLI when reading from a file and by tests that need deterministic
// input.
type StaticProvider struct {
	points []Point
}

// NewStaticProvider creates a provider over a fixed series. The series must
// already be sorted ascending by timestamp.
func NewStaticProvider(points []Point) *StaticProvider {
	return &StaticProvider{points: points}
}

// GetPrices returns a copy of the stored series. The market and day-span
// arguments are ignored; the provider serves whatever it was loaded with.
func (p *StaticProvider) GetPrices(ctx context.Context, market string, days int) ([]Point, error) {
	out := make([]Point, len(p.points))
	copy(out, p.points)
	return out, nil
}
