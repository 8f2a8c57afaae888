package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/batimetric/pricing-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. WAL mode gives the
// single-writer/multiple-reader discipline the ledger needs: an append is
// atomic and readers see either all of it or none of it.
type SQLiteStore struct {
	db *sql.DB
}

// sqlitePragmas are applied through the DSN so that every connection in the
// database/sql pool gets them. busy_timeout in particular is per-connection:
// setting it with a one-off Exec would leave the other pooled connections at
// timeout 0 and concurrent appends would fail with SQLITE_BUSY instead of
// queueing.
const sqlitePragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// NewSQLite opens (or creates) the ledger database at the given path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+sqlitePragmas)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: open sqlite")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS corrections (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	proposal_id   TEXT NOT NULL DEFAULT '',
	item_type     TEXT NOT NULL DEFAULT '',
	item_label    TEXT NOT NULL,
	feedback_type TEXT NOT NULL DEFAULT '',
	actual_price  REAL,
	comment       TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_corrections_item_label ON corrections(item_label);
CREATE INDEX IF NOT EXISTS idx_corrections_actual_price ON corrections(actual_price);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "ledger: migrate sqlite")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, c model.Correction) (int64, error) {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO corrections (proposal_id, item_type, item_label, feedback_type, actual_price, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ProposalID, string(c.ItemType), c.ItemLabel, string(c.FeedbackType),
		nullFloat(c.ActualPrice), c.Comment, createdAt,
	)
	if err != nil {
		return 0, eris.Wrap(err, "ledger: insert correction")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "ledger: last insert id")
	}
	return id, nil
}

func (s *SQLiteStore) ListPriced(ctx context.Context) ([]model.Correction, error) {
	return s.query(ctx,
		`SELECT id, proposal_id, item_type, item_label, feedback_type, actual_price, comment, created_at
		 FROM corrections WHERE actual_price IS NOT NULL ORDER BY id ASC`)
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Correction, error) {
	return s.query(ctx,
		`SELECT id, proposal_id, item_type, item_label, feedback_type, actual_price, comment, created_at
		 FROM corrections ORDER BY id DESC`)
}

func (s *SQLiteStore) query(ctx context.Context, q string) ([]model.Correction, error) {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: query corrections")
	}
	defer rows.Close()

	var out []model.Correction
	for rows.Next() {
		var (
			c     model.Correction
			price sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &c.ProposalID, &c.ItemType, &c.ItemLabel,
			&c.FeedbackType, &price, &c.Comment, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "ledger: scan correction")
		}
		if price.Valid {
			v := price.Float64
			c.ActualPrice = &v
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "ledger: iterate corrections")
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
