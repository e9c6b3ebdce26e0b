package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/migrations"
)

const (
	maxConnectionRetries = 3
	connectionRetrySleep = 2 * time.Second
)

// HistoryStore appends each cycle's result to Postgres for trend
// inspection. It is optional; the file artifact remains the contract and
// history write failures are logged by the caller, not fatal.
type HistoryStore struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

// NewHistoryStore connects to Postgres with retries.
func NewHistoryStore(ctx context.Context, dsn string, logger *zerolog.Logger) (*HistoryStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	var pool *pgxpool.Pool

	for i := 0; i < maxConnectionRetries; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return &HistoryStore{pool: pool, logger: logger}, nil
			}
		}

		if pool != nil {
			pool.Close()
		}

		time.Sleep(connectionRetrySleep)
	}

	return nil, fmt.Errorf("failed to connect to database after retries: %w", err)
}

// Close closes the connection pool.
func (s *HistoryStore) Close() {
	s.pool.Close()
}

type gooseLogger struct {
	logger *zerolog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal().Msgf(format, v...)
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

// Migrate runs the embedded goose migrations.
func (s *HistoryStore) Migrate(_ context.Context) error {
	dbSQL := stdlib.OpenDB(*s.pool.Config().ConnConfig)

	defer func() {
		_ = dbSQL.Close()
	}()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&gooseLogger{logger: s.logger})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(dbSQL, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Append records one cycle's result.
func (s *HistoryStore) Append(ctx context.Context, res *domain.AnalysisResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling result for history: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analysis_history (created_at, status, risk_index, provider, risk_count, raw)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		res.UpdatedAt, res.Status, res.RiskIndex, res.Provider, len(res.Risks), raw)
	if err != nil {
		return fmt.Errorf("inserting analysis history: %w", err)
	}

	return nil
}
