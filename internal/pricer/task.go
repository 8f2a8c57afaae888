// Package pricer turns proposal lines into priced lines and aggregates whole
// proposals. Labor pricing is deterministic: same inputs and same ledger
// state always produce the same output.
package pricer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/batimetric/pricing-engine/internal/model"
	"github.com/batimetric/pricing-engine/internal/rates"
)

// ErrInvalidMargin rejects a whole pricing request: margin is proposal-wide.
var ErrInvalidMargin = eris.New("contractor margin must be >= 0")

// Adjuster produces the feedback delta for a label and base price.
type Adjuster interface {
	Estimate(ctx context.Context, itemLabel string, basePrice float64, asOf time.Time) float64
}

// TaskPricer prices labor lines from benchmark rate tables.
type TaskPricer struct {
	tables   *rates.Tables
	adjuster Adjuster
}

// NewTaskPricer creates a TaskPricer. adjuster may be nil, in which case no
// feedback adjustment is applied.
func NewTaskPricer(tables *rates.Tables, adjuster Adjuster) *TaskPricer {
	return &TaskPricer{tables: tables, adjuster: adjuster}
}

// PriceTask prices one labor line:
//
//	base        = midpoint(category) × hours × phase × region × quantity
//	adjusted    = base + feedback adjustment
//	with_margin = adjusted × (1 + margin)
//
// Unknown categories, phases and regions silently fall back to their table
// defaults, noted in the derivation string. A malformed duration fails the
// line with rates.ErrMalformedDuration; a negative margin fails the request.
// Monetary fields are rounded to 2 decimals on the returned line only.
func (p *TaskPricer) PriceTask(ctx context.Context, task model.Task, region string, margin float64, asOf time.Time) (model.PricedTask, error) {
	if margin < 0 {
		return model.PricedTask{}, eris.Wrapf(ErrInvalidMargin, "margin %g", margin)
	}

	category := task.Category
	if category == "" {
		category = "General"
	}
	phase := task.Phase
	if phase == "" {
		phase = "Install"
	}
	quantity := task.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	rng, rateSource := p.tables.RateFor(category)
	hourly := rng.Midpoint()

	hours, err := rates.ParseDuration(task.Duration)
	if err != nil {
		return model.PricedTask{}, eris.Wrapf(err, "task %q", task.Label)
	}

	phaseMult, phaseKnown := p.tables.PhaseFor(phase)
	regionMod, regionKnown := p.tables.RegionFor(region)

	base := hourly * hours * phaseMult * regionMod * quantity

	var adjustment float64
	if p.adjuster != nil {
		adjustment = p.adjuster.Estimate(ctx, task.Label, base, asOf)
	}

	baseR := round2(base)
	adjR := round2(adjustment)
	adjustedR := round2(baseR + adjR)
	withMarginR := round2(adjustedR * (1.0 + margin))

	catName := category
	if rateSource == rates.FallbackKey && !strings.EqualFold(category, rates.FallbackKey) {
		catName = fmt.Sprintf("default (category %q not benchmarked)", category)
	}
	details := fmt.Sprintf("Based on %s benchmark range (%.0f–%.0f €/h), using midpoint %.0f €/h × %.1fh × %s multiplier %g",
		catName, rng.Low, rng.High, hourly, hours, phase, phaseMult)
	if !phaseKnown {
		details += " (default)"
	}
	details += fmt.Sprintf(" × regional modifier %g", regionMod)
	if !regionKnown {
		details += " (default)"
	}
	if quantity != 1 {
		details += fmt.Sprintf(" × qty %.1f", quantity)
	}
	if adjR != 0 {
		details += fmt.Sprintf(" + feedback adjustment %+.2f€", adjR)
	}
	if margin != 0 {
		details += fmt.Sprintf(" + margin %.0f%%", margin*100)
	}

	return model.PricedTask{
		ID:          task.ID,
		Label:       task.Label,
		Description: task.Description,
		Category:    category,
		Zone:        task.Zone,
		Phase:       phase,
		Unit:        task.Unit,
		Quantity:    quantity,
		Duration:    task.Duration,

		HourlyRate:         hourly,
		DurationHours:      hours,
		PhaseMultiplier:    phaseMult,
		RegionalModifier:   regionMod,
		BaseCost:           baseR,
		FeedbackAdjustment: adjR,
		AdjustedCost:       adjustedR,
		WithMargin:         withMarginR,
		PricingMethod:      model.MethodLaborRate,
		PricingDetails:     details,
	}, nil
}

// round2 rounds to 2 decimal places. Applied only at the response boundary;
// intermediate arithmetic keeps full precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
