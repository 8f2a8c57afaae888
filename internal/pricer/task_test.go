package pricer

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batimetric/pricing-engine/internal/model"
	"github.com/batimetric/pricing-engine/internal/rates"
)

// fixedAdjuster returns the same delta for every label.
type fixedAdjuster struct{ delta float64 }

func (f *fixedAdjuster) Estimate(_ context.Context, _ string, _ float64, _ time.Time) float64 {
	return f.delta
}

func TestPriceTask_Derivation(t *testing.T) {
	t.Parallel()
	p := NewTaskPricer(rates.Default(), nil)

	// 55 €/h × 3h × 1.25 × 1.15 = 237.1875, rounded at the boundary.
	task := model.Task{Label: "Install sink", Category: "Plumbing", Phase: "Install", Duration: "3h"}
	got, err := p.PriceTask(context.Background(), task, "ile-de-france", 0.15, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 55.0, got.HourlyRate)
	assert.Equal(t, 3.0, got.DurationHours)
	assert.Equal(t, 1.25, got.PhaseMultiplier)
	assert.Equal(t, 1.15, got.RegionalModifier)
	assert.Equal(t, 237.19, got.BaseCost)
	assert.Equal(t, 0.0, got.FeedbackAdjustment)
	assert.Equal(t, 237.19, got.AdjustedCost)
	assert.Equal(t, 272.77, got.WithMargin)
	assert.Equal(t, model.MethodLaborRate, got.PricingMethod)
	assert.Contains(t, got.PricingDetails, "Plumbing benchmark range (40–70 €/h)")
	assert.Contains(t, got.PricingDetails, "midpoint 55 €/h")
	assert.Contains(t, got.PricingDetails, "margin 15%")
}

func TestPriceTask_ZeroMarginLeavesAdjusted(t *testing.T) {
	t.Parallel()
	p := NewTaskPricer(rates.Default(), nil)

	task := model.Task{Category: "Plumbing", Phase: "Install", Duration: "3h"}
	got, err := p.PriceTask(context.Background(), task, "ile-de-france", 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, got.AdjustedCost, got.WithMargin)
	assert.NotContains(t, got.PricingDetails, "margin")
}

func TestPriceTask_NegativeMargin(t *testing.T) {
	t.Parallel()
	p := NewTaskPricer(rates.Default(), nil)

	_, err := p.PriceTask(context.Background(), model.Task{Duration: "1h"}, "", -0.1, time.Now())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidMargin))
}

func TestPriceTask_MalformedDuration(t *testing.T) {
	t.Parallel()
	p := NewTaskPricer(rates.Default(), nil)

	_, err := p.PriceTask(context.Background(), model.Task{Label: "x", Duration: "soon"}, "", 0, time.Now())
	require.Error(t, err)
	assert.True(t, eris.Is(err, rates.ErrMalformedDuration))
}

func TestPriceTask_DefaultsForBlankFields(t *testing.T) {
	t.Parallel()
	p := NewTaskPricer(rates.Default(), nil)

	// Blank category reads as General, blank phase as Install, qty 0 as 1.
	got, err := p.PriceTask(context.Background(), model.Task{Duration: "2h"}, "", 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "General", got.Category)
	assert.Equal(t, "Install", got.Phase)
	assert.Equal(t, 1.0, got.Quantity)
	assert.Equal(t, 40.0, got.HourlyRate) // general midpoint
}

func TestPriceTask_UnknownCategoryNoted(t *testing.T) {
	t.Parallel()
	p := NewTaskPricer(rates.Default(), nil)

	got, err := p.PriceTask(context.Background(), model.Task{Category: "Masonry", Duration: "1h"}, "", 0, time.Now())
	require.NoError(t, err)
	assert.Contains(t, got.PricingDetails, `category "Masonry" not benchmarked`)
}

func TestPriceTask_UnknownRegionNoted(t *testing.T) {
	t.Parallel()
	p := NewTaskPricer(rates.Default(), nil)

	got, err := p.PriceTask(context.Background(), model.Task{Category: "Plumbing", Duration: "1h"}, "atlantis", 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.RegionalModifier)
	assert.Contains(t, got.PricingDetails, "regional modifier 1 (default)")
}

func TestPriceTask_QuantityScalesBase(t *testing.T) {
	t.Parallel()
	p := NewTaskPricer(rates.Default(), nil)

	one, err := p.PriceTask(context.Background(), model.Task{Category: "Tiling", Duration: "2h", Quantity: 1}, "", 0, time.Now())
	require.NoError(t, err)
	three, err := p.PriceTask(context.Background(), model.Task{Category: "Tiling", Duration: "2h", Quantity: 3}, "", 0, time.Now())
	require.NoError(t, err)

	assert.InDelta(t, one.BaseCost*3, three.BaseCost, 0.01)
	assert.Contains(t, three.PricingDetails, "qty 3.0")
}

func TestPriceTask_FeedbackAdjustment(t *testing.T) {
	t.Parallel()
	p := NewTaskPricer(rates.Default(), &fixedAdjuster{delta: -37.19})

	task := model.Task{Label: "Install sink", Category: "Plumbing", Phase: "Install", Duration: "3h"}
	got, err := p.PriceTask(context.Background(), task, "ile-de-france", 0.10, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 237.19, got.BaseCost)
	assert.Equal(t, -37.19, got.FeedbackAdjustment)
	assert.Equal(t, 200.0, got.AdjustedCost)
	assert.Equal(t, 220.0, got.WithMargin)
	assert.Contains(t, got.PricingDetails, "feedback adjustment -37.19€")
}

func TestPriceTask_Deterministic(t *testing.T) {
	t.Parallel()
	p := NewTaskPricer(rates.Default(), nil)
	task := model.Task{Category: "Electrical", Phase: "Finish", Duration: "half day", Quantity: 2}

	first, err := p.PriceTask(context.Background(), task, "occitanie", 0.2, time.Now())
	require.NoError(t, err)
	second, err := p.PriceTask(context.Background(), task, "occitanie", 0.2, time.Now())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
