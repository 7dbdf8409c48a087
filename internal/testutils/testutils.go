package testutils

import (
	"time"

	"qsim/internal/market/price"
)

// SeriesStart is the timestamp the series builders begin at. Fixed so test
// expectations are stable.
var SeriesStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Series builds a price series from explicit prices, one sample per step
// starting at SeriesStart.
func Series(step time.Duration, prices ...float64) []price.Point {
	points := make([]price.Point, len(prices))
	for i, p := range prices {
		points[i] = price.Point{
			Timestamp: SeriesStart.Add(time.Duration(i) * step),
			Price:     p,
		}
	}
	return points
}

// ConstantSeries builds n samples at a fixed price.
func ConstantSeries(n int, step time.Duration, value float64) []price.Point {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = value
	}
	return Series(step, prices...)
}

// LinearSeries builds n samples moving evenly from `from` to `to` inclusive.
func LinearSeries(n int, step time.Duration, from, to float64) []price.Point {
	prices := make([]float64, n)
	for i := range prices {
		if n == 1 {
			prices[i] = from
			continue
		}
		prices[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return Series(step, prices...)
}
