package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batimetric/pricing-engine/internal/adjust"
	"github.com/batimetric/pricing-engine/internal/ledger"
	"github.com/batimetric/pricing-engine/internal/model"
	"github.com/batimetric/pricing-engine/internal/pricer"
	"github.com/batimetric/pricing-engine/internal/rates"
	"github.com/batimetric/pricing-engine/pkg/catalog"
)

// stubCatalog serves canned hits without a network.
type stubCatalog struct {
	hits []catalog.Hit
	err  error
}

func (s *stubCatalog) Match(_ context.Context, _ catalog.MatchRequest) ([]catalog.Hit, error) {
	return s.hits, s.err
}

func (s *stubCatalog) CollectionStats(_ context.Context) (*catalog.Stats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.Stats{Collection: "products", ProductCount: 42}, nil
}

func newTestEnv(t *testing.T, cat catalog.Client) *engineEnv {
	t.Helper()
	ctx := context.Background()

	store, err := ledger.Open(ctx, ledger.Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tables := rates.Default()
	estimator := adjust.NewEstimator(store)
	engine := pricer.NewEngine(
		pricer.NewTaskPricer(tables, estimator),
		pricer.NewMaterialPricer(cat, estimator),
		2,
	)
	return &engineEnv{Ledger: store, Catalog: cat, Tables: tables, Engine: engine}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandlePrice(t *testing.T) {
	router := newRouter(newTestEnv(t, &stubCatalog{}))

	w := doJSON(t, router, http.MethodPost, "/price", model.Proposal{
		Metadata: model.ProposalMetadata{Region: "ile-de-france"},
		Tasks: []model.Task{
			{Label: "Install sink", Category: "Plumbing", Phase: "Install", Duration: "3h"},
		},
		ContractorMargin: 0.15,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var out model.PricedProposal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.PricedTasks, 1)
	assert.Equal(t, 272.77, out.PricedTasks[0].WithMargin)
	assert.Equal(t, 272.77, out.Summary.Total)
}

func TestHandlePrice_NegativeMargin(t *testing.T) {
	router := newRouter(newTestEnv(t, &stubCatalog{}))

	w := doJSON(t, router, http.MethodPost, "/price", model.Proposal{ContractorMargin: -0.1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "margin")
}

func TestHandlePrice_BadBody(t *testing.T) {
	router := newRouter(newTestEnv(t, &stubCatalog{}))

	req := httptest.NewRequest(http.MethodPost, "/price", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleFeedback(t *testing.T) {
	env := newTestEnv(t, &stubCatalog{})
	router := newRouter(env)

	w := doJSON(t, router, http.MethodPost, "/feedback", map[string]any{
		"proposal_id":   "prop-1",
		"item_type":     "task",
		"item_label":    "Install sink",
		"feedback_type": "too_high",
		"actual_price":  180.0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Status string `json:"status"`
		ID     int64  `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, int64(1), out.ID)

	records, err := env.Ledger.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Install sink", records[0].ItemLabel)
}

func TestHandleFeedback_MissingLabel(t *testing.T) {
	router := newRouter(newTestEnv(t, &stubCatalog{}))

	w := doJSON(t, router, http.MethodPost, "/feedback", map[string]any{"feedback_type": "too_high"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "item_label")
}

func TestHandleSearch(t *testing.T) {
	router := newRouter(newTestEnv(t, &stubCatalog{hits: []catalog.Hit{
		{Label: "Mortier colle C2", UnitPrice: 12.5, Confidence: 0.8},
	}}))

	req := httptest.NewRequest(http.MethodGet, "/search?q=mortier", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var hits []catalog.Hit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "Mortier colle C2", hits[0].Label)
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	router := newRouter(newTestEnv(t, &stubCatalog{}))

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHealth(t *testing.T) {
	router := newRouter(newTestEnv(t, &stubCatalog{}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "ok", out["status"])
	assert.EqualValues(t, 42, out["catalog_products"])
}
