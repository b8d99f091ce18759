package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	initialConnectBackoff = 100 * time.Millisecond
	maxConnectBackoff     = 2 * time.Second
)

// Connect opens the database and pings it until it answers or maxWait
// elapses. The server may be started before the database is ready.
func Connect(ctx context.Context, dsn string, maxWait time.Duration, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	for attempt := 0; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("database reachable", slog.Int("attempts", attempt+1))
			}
			return db, nil
		}

		backoff := connectBackoff(attempt)
		logger.Debug("database not ready",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("database not reachable after %s: %w", maxWait, err)
		case <-time.After(backoff):
		}
	}
}

func connectBackoff(attempt int) time.Duration {
	backoff := initialConnectBackoff
	for range attempt {
		backoff *= 2
		if backoff >= maxConnectBackoff {
			return maxConnectBackoff
		}
	}
	return backoff
}
