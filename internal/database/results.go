package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"qsim/internal/backtest"
)

// ErrResultNotFound is returned by Get when no run exists with the given ID.
var ErrResultNotFound = errors.New("backtest result not found")

// ResultSummary is the list-view projection of a persisted backtest run.
type ResultSummary struct {
	ID             string            `json:"id"`
	Strategy       backtest.Strategy `json:"strategy"`
	Symbol         string            `json:"symbol"`
	InitialCapital float64           `json:"initial_capital"`
	FinalCapital   float64           `json:"final_capital"`
	TotalTrades    int               `json:"total_trades"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ResultStore persists finished backtest results.
type ResultStore struct {
	db *DB
}

// NewResultStore creates a result store over an open connection.
func NewResultStore(db *DB) *ResultStore {
	return &ResultStore{db: db}
}

// Save stores a result and returns its assigned run ID.
func (s *ResultStore) Save(ctx context.Context, result *backtest.Result) (string, error) {
	id := uuid.New().String()
	result.ID = id

	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	query := `
		INSERT INTO backtest_results (
			id, strategy, symbol, start_date, end_date,
			initial_capital, final_capital, total_trades, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		id,
		string(result.Strategy),
		result.Symbol,
		result.StartDate,
		result.EndDate,
		result.InitialCapital,
		result.FinalCapital,
		result.Metrics.TotalTrades,
		payload,
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert backtest result: %w", err)
	}

	return id, nil
}

// List returns the most recent run summaries, newest first.
func (s *ResultStore) List(ctx context.Context, limit int) ([]ResultSummary, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, strategy, symbol, initial_capital, final_capital, total_trades, created_at
		FROM backtest_results
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest results: %w", err)
	}
	defer rows.Close()

	var summaries []ResultSummary
	for rows.Next() {
		var sm ResultSummary
		if err := rows.Scan(
			&sm.ID,
			&sm.Strategy,
			&sm.Symbol,
			&sm.InitialCapital,
			&sm.FinalCapital,
			&sm.TotalTrades,
			&sm.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result summary: %w", err)
		}
		summaries = append(summaries, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result summaries: %w", err)
	}

	return summaries, nil
}

// Get loads a full persisted result by run ID. Returns ErrResultNotFound
// when the run does not exist.
func (s *ResultStore) Get(ctx context.Context, id string) (*backtest.Result, error) {
	var payload []byte
	query := `SELECT payload FROM backtest_results WHERE id = $1`
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load backtest result: %w", err)
	}

	var result backtest.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode backtest result: %w", err)
	}
	return &result, nil
}
