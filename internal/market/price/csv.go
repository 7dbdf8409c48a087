package price

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
)

// csvRecord is one row of an exported price file. Timestamps are unix seconds.
type csvRecord struct {
	Timestamp int64   `csv:"timestamp"`
	Price     float64 `csv:"price"`
}

// LoadCSV reads a price series from a CSV file with `timestamp,price` columns
// and returns a static provider over it. Rows are sorted by timestamp so the
// provider upholds the ordering contract even for hand-edited files.
func LoadCSV(path string) (*StaticProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	var records []csvRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("failed to parse price file: %w", err)
	}

	points := make([]Point, 0, len(records))
	for _, r := range records {
		points = append(points, Point{
			Timestamp: time.Unix(r.Timestamp, 0).UTC(),
			Price:     r.Price,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	return NewStaticProvider(points), nil
}
