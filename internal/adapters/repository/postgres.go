package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/pkg/logger"
	"github.com/okian/levelcard/pkg/metrics"
)

const (
	queryXP   = "SELECT xp FROM levels WHERE id = $1 AND guild = $2"
	queryRank = "SELECT COUNT(*) AS count FROM levels WHERE xp > $1 AND guild = $2"
	queryCard = `SELECT important, secondary, rank, level, border, background,
	progress_foreground, progress_background, font, toy_image
	FROM custom_card WHERE id = $1`
)

// rowQuerier is the part of pgxpool.Pool the store needs.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads the levels and custom_card tables.
type PostgresStore struct {
	db      rowQuerier
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  logger.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects a pool to databaseURL and checks it once.
func NewPostgresStore(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	o := defaultPostgresOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %w", ErrConnect, err)
	}
	cfg.MaxConns = o.maxConns
	cfg.MinConns = min(o.minConns, o.maxConns)
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.ConnConfig.RuntimeParams["application_name"] = o.appName

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrConnect, err)
	}

	s := newPostgresStore(pool, o.queryTimeout)
	s.pool = pool
	s.logger.Info(ctx, "connected to database", logger.Int("max_conns", int(o.maxConns)))
	return s, nil
}

func newPostgresStore(db rowQuerier, timeout time.Duration) *PostgresStore {
	return &PostgresStore{
		db:      db,
		timeout: timeout,
		logger:  logger.Get().Named("repository"),
	}
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// XP implements Store.
func (s *PostgresStore) XP(ctx context.Context, guild, user string) (uint64, error) {
	gid, err := parseID(guild)
	if err != nil {
		return 0, err
	}
	uid, err := parseID(user)
	if err != nil {
		return 0, err
	}

	var xp int64
	err = s.queryRow(ctx, "xp", queryXP, []any{uid, gid}, &xp)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, err
	case xp < 0:
		return 0, nil
	}
	return uint64(xp), nil
}

// Rank implements Store.
func (s *PostgresStore) Rank(ctx context.Context, guild string, xp uint64) (int64, error) {
	gid, err := parseID(guild)
	if err != nil {
		return 0, err
	}
	var ahead int64
	if err := s.queryRow(ctx, "rank", queryRank, []any{clampXP(xp), gid}, &ahead); err != nil {
		return 0, err
	}
	return ahead + 1, nil
}

// Customization implements Store.
func (s *PostgresStore) Customization(ctx context.Context, user string) (card.Customization, error) {
	uid, err := parseID(user)
	if err != nil {
		return card.DefaultCustomization(), err
	}

	var r CustomizationRecord
	err = s.queryRow(ctx, "customization", queryCard, []any{uid},
		&r.Important, &r.Secondary, &r.Rank, &r.Level, &r.Border, &r.Background,
		&r.ProgressForeground, &r.ProgressBackground, &r.Font, &r.Toy,
	)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return card.DefaultCustomization(), nil
	case err != nil:
		return card.DefaultCustomization(), err
	}
	return r.Resolve(), nil
}

func (s *PostgresStore) queryRow(ctx context.Context, name, sql string, args []any, dest ...any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := s.db.QueryRow(ctx, sql, args...).Scan(dest...)
	metrics.RecordRepositoryQuery(name, time.Since(start))

	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	metrics.RecordErrorByComponent("repository", name)
	s.logger.Warn(ctx, "lookup failed", logger.String("query", name), logger.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrQuery, name, err)
}

func parseID(id string) (int64, error) {
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return v, nil
}

// clampXP keeps xp inside the bigint column range.
func clampXP(xp uint64) int64 {
	if xp > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(xp)
}
