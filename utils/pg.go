package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgx"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ReliableExec runs f with a fresh pool connection per attempt, retrying with
// exponential backoff until f succeeds, the error is permanent, or ctx dies.
// Each attempt gets its own tryTimeout.
func ReliableExec(ctx context.Context, pool *pgxpool.Pool, tryTimeout time.Duration, f func(ctx context.Context, conn *pgxpool.Conn) error) error {
	return backoff.Retry(func() error {
		tryCtx, cancel := context.WithTimeout(ctx, tryTimeout)
		defer cancel()
		conn, err := pool.Acquire(tryCtx)
		if err != nil {
			return fmt.Errorf("error in Acquire: %w", err)
		}
		defer conn.Release()
		return f(tryCtx, conn)
	}, backoff.WithContext(backoff.NewExponentialBackOff(), ctx))
}

// ReliableExecInTx is ReliableExec wrapped in a retryable transaction, for
// writes that must land atomically.
func ReliableExecInTx(ctx context.Context, pool *pgxpool.Pool, tryTimeout time.Duration, f func(ctx context.Context, tx pgx.Tx) error) error {
	return backoff.Retry(func() error {
		tryCtx, cancel := context.WithTimeout(ctx, tryTimeout)
		defer cancel()
		conn, err := pool.Acquire(tryCtx)
		if err != nil {
			return fmt.Errorf("error in Acquire: %w", err)
		}
		defer conn.Release()
		return crdbpgx.ExecuteTx(tryCtx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
			return f(tryCtx, tx)
		})
	}, backoff.WithContext(backoff.NewExponentialBackOff(), ctx))
}
