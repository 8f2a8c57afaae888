package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batimetric/pricing-engine/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_Append(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO corrections").
		WithArgs("prop-1", "task", "Pose carrelage", "too_high", ptr(210.0), "", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := store.Append(context.Background(), model.Correction{
		ProposalID:   "prop-1",
		ItemType:     model.ItemTypeTask,
		ItemLabel:    "Pose carrelage",
		FeedbackType: model.FeedbackTooHigh,
		ActualPrice:  ptr(210.0),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListPriced(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	created := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("WHERE actual_price IS NOT NULL").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "proposal_id", "item_type", "item_label", "feedback_type", "actual_price", "comment", "created_at",
		}).AddRow(
			int64(1), "prop-1", model.ItemTypeTask, "Pose carrelage", model.FeedbackTooHigh, ptr(210.0), "", created,
		))

	records, err := store.ListPriced(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, "Pose carrelage", records[0].ItemLabel)
	require.NotNil(t, records[0].ActualPrice)
	assert.Equal(t, 210.0, *records[0].ActualPrice)
	assert.True(t, created.Equal(records[0].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS corrections").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
