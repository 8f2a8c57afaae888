// Package ledger is the append-only store of contractor price corrections.
//
// Records are immutable once appended: there is no update or delete
// operation, and ids are assigned monotonically by the backing store.
// Contradictory corrections accumulate and are reconciled by the adjustment
// estimator, never by rewriting history.
package ledger

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/batimetric/pricing-engine/internal/model"
)

// Store is the persistence interface for the correction ledger. Appends are
// serialized by the backing store; reads observe a consistent snapshot.
type Store interface {
	// Append inserts a correction and returns its assigned id.
	Append(ctx context.Context, c model.Correction) (int64, error)
	// ListPriced returns every correction carrying an actual price, oldest
	// first. This is the estimator's read path.
	ListPriced(ctx context.Context) ([]model.Correction, error)
	// List returns all corrections, newest first (CLI inspection).
	List(ctx context.Context) ([]model.Correction, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures the ledger backend.
type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`             // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`                 // sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // postgres conn string
}

// Open creates a Store for the configured driver and runs migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "feedback.db"
		}
		s, err = NewSQLite(path)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("ledger: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
