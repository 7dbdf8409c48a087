package price

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Querier is the subset of the database connection used by the provider.
// It is satisfied by *database.DB without importing that package, which
// would otherwise create an import cycle through internal/backtest.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresProvider reads price history from the market_data table.
type PostgresProvider struct {
	db Querier
}

// NewPostgresProvider creates a database-backed price provider.
func NewPostgresProvider(db Querier) *PostgresProvider {
	return &PostgresProvider{db: db}
}

// GetPrices returns hourly close prices for the given market over the last
// `days` days, oldest first.
func (p *PostgresProvider) GetPrices(ctx context.Context, market string, days int) ([]Point, error) {
	if days <= 0 {
		days = 1
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	query := `
		SELECT timestamp, price
		FROM market_data
		WHERE symbol = $1 AND timestamp >= $2
		ORDER BY timestamp ASC
	`

	rows, err := p.db.QueryContext(ctx, query, market, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var pt Point
		if err := rows.Scan(&pt.Timestamp, &pt.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, pt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price points: %w", err)
	}

	return points, nil
}
