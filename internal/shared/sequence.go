package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NumberSource hands out document numbers such as INV004 or PUR012.
// Any monotonic unique-string scheme satisfies callers; this one keeps one
// counter row per scope.
type NumberSource interface {
	Next(ctx context.Context, scope string) (string, error)
}

// DocNumbers is the PostgreSQL-backed NumberSource.
type DocNumbers struct {
	pool *pgxpool.Pool
}

// NewDocNumbers constructs the generator.
func NewDocNumbers(pool *pgxpool.Pool) *DocNumbers {
	return &DocNumbers{pool: pool}
}

// Next reserves and returns the next number for scope. The upsert makes the
// increment a single atomic statement, so concurrent callers never receive
// the same number.
func (s *DocNumbers) Next(ctx context.Context, scope string) (string, error) {
	if s == nil {
		return "", errors.New("number source not initialised")
	}
	if scope == "" {
		return "", errors.New("number scope required")
	}
	var n int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO doc_numbers (scope, last_no) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET last_no = doc_numbers.last_no + 1
		RETURNING last_no`, scope).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("shared: next number for %s: %w", scope, err)
	}
	return fmt.Sprintf("%s%03d", scope, n), nil
}
