package db

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/blake2b"
)

// Key returns the storage key of a request body.
func Key(request []byte) []byte {
	sum := blake2b.Sum256(request)
	return sum[:]
}

// ResponseRepository stores raw API response bodies keyed by the
// BLAKE2b-256 hash of the request body.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a repository over pool.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

// Get returns the stored response for request, if any.
func (r *ResponseRepository) Get(ctx context.Context, request []byte) ([]byte, bool, error) {
	key := Key(request)
	var body []byte
	err := r.pool.QueryRow(ctx,
		`SELECT response FROM api_responses WHERE key = $1`, key,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying response %s: %w", hex.EncodeToString(key[:8]), err)
	}
	return body, true, nil
}

// Put stores or replaces the response for request.
func (r *ResponseRepository) Put(ctx context.Context, request, response []byte) error {
	key := Key(request)
	_, err := r.pool.Exec(ctx,
		`INSERT INTO api_responses (key, request, response, fetched_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE
		 SET response = EXCLUDED.response, fetched_at = EXCLUDED.fetched_at`,
		key, request, response, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("storing response %s: %w", hex.EncodeToString(key[:8]), err)
	}
	return nil
}

// Prune deletes responses fetched before cutoff and returns how many were removed.
func (r *ResponseRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM api_responses WHERE fetched_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning responses: %w", err)
	}
	return tag.RowsAffected(), nil
}
