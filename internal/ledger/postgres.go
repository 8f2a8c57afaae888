package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/batimetric/pricing-engine/internal/model"
)

// Pool is the minimal pgx pool surface the Postgres ledger needs. Satisfied
// by *pgxpool.Pool and by pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on a shared Postgres database, for
// deployments where several engine instances feed one ledger.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to Postgres and verifies the connection.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "ledger: ping postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS corrections (
	id            BIGSERIAL PRIMARY KEY,
	proposal_id   TEXT NOT NULL DEFAULT '',
	item_type     TEXT NOT NULL DEFAULT '',
	item_label    TEXT NOT NULL,
	feedback_type TEXT NOT NULL DEFAULT '',
	actual_price  DOUBLE PRECISION,
	comment       TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_corrections_item_label ON corrections(item_label);
CREATE INDEX IF NOT EXISTS idx_corrections_actual_price ON corrections(actual_price)`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "ledger: migrate postgres")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, c model.Correction) (int64, error) {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO corrections (proposal_id, item_type, item_label, feedback_type, actual_price, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		c.ProposalID, string(c.ItemType), c.ItemLabel, string(c.FeedbackType),
		c.ActualPrice, c.Comment, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "ledger: insert correction")
	}
	return id, nil
}

func (s *PostgresStore) ListPriced(ctx context.Context) ([]model.Correction, error) {
	return s.queryCorrections(ctx,
		`SELECT id, proposal_id, item_type, item_label, feedback_type, actual_price, comment, created_at
		 FROM corrections WHERE actual_price IS NOT NULL ORDER BY id ASC`)
}

func (s *PostgresStore) List(ctx context.Context) ([]model.Correction, error) {
	return s.queryCorrections(ctx,
		`SELECT id, proposal_id, item_type, item_label, feedback_type, actual_price, comment, created_at
		 FROM corrections ORDER BY id DESC`)
}

func (s *PostgresStore) queryCorrections(ctx context.Context, q string) ([]model.Correction, error) {
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: query corrections")
	}
	defer rows.Close()

	var out []model.Correction
	for rows.Next() {
		var c model.Correction
		if err := rows.Scan(&c.ID, &c.ProposalID, &c.ItemType, &c.ItemLabel,
			&c.FeedbackType, &c.ActualPrice, &c.Comment, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "ledger: scan correction")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "ledger: iterate corrections")
}
