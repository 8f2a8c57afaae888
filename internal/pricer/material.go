package pricer

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/batimetric/pricing-engine/internal/model"
	"github.com/batimetric/pricing-engine/pkg/catalog"
)

// Matcher is the semantic product-match collaborator. catalog.Client
// satisfies it.
type Matcher interface {
	Match(ctx context.Context, req catalog.MatchRequest) ([]catalog.Hit, error)
}

// MaterialPricer prices product lines from catalog matches.
type MaterialPricer struct {
	matcher  Matcher
	adjuster Adjuster
}

// NewMaterialPricer creates a MaterialPricer. adjuster may be nil.
func NewMaterialPricer(matcher Matcher, adjuster Adjuster) *MaterialPricer {
	return &MaterialPricer{matcher: matcher, adjuster: adjuster}
}

// PriceMaterial prices one material line. The best catalog hit gives the unit
// price; from there the margin and feedback steps match PriceTask. When no
// hit comes back the line is returned unmatched (nil price, method
// "no_match") and must be excluded from totals — that is not an error. The
// returned error covers only collaborator failures.
func (p *MaterialPricer) PriceMaterial(ctx context.Context, m model.Material, margin float64, asOf time.Time) (model.PricedMaterial, error) {
	if margin < 0 {
		return model.PricedMaterial{}, eris.Wrapf(ErrInvalidMargin, "margin %g", margin)
	}

	quantity := m.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	line := model.PricedMaterial{
		Label:          m.Label,
		Unit:           m.Unit,
		Quantity:       quantity,
		UsedIn:         m.UsedIn,
		PricingMethod:  model.MethodNoMatch,
		PricingDetails: fmt.Sprintf("No matching product found for %q", m.Label),
	}

	hits, err := p.matcher.Match(ctx, catalog.MatchRequest{QueryText: m.Label, TopK: 1})
	if err != nil {
		return model.PricedMaterial{}, eris.Wrapf(err, "material %q", m.Label)
	}
	if len(hits) == 0 {
		return line, nil
	}

	best := hits[0]
	base := best.UnitPrice * quantity

	var adjustment float64
	if p.adjuster != nil {
		adjustment = p.adjuster.Estimate(ctx, m.Label, base, asOf)
	}

	unitR := round2(best.UnitPrice)
	baseR := round2(base)
	adjR := round2(adjustment)
	adjustedR := round2(baseR + adjR)
	withMarginR := round2(adjustedR * (1.0 + margin))

	details := fmt.Sprintf("Matched %q at %.2f€ (confidence %.2f%%) × qty %g",
		best.Label, best.UnitPrice, best.Confidence*100, quantity)
	if adjR != 0 {
		details += fmt.Sprintf(" + feedback adjustment %+.2f€", adjR)
	}
	if margin != 0 {
		details += fmt.Sprintf(" + margin %.0f%%", margin*100)
	}

	line.Match = &model.CatalogMatch{
		Name:       best.Label,
		Price:      best.UnitPrice,
		Unit:       best.Unit,
		Category:   best.Category,
		URL:        best.URL,
		ProductID:  best.ProductID,
		Distance:   best.RawDistance,
		Confidence: best.Confidence,
	}
	line.UnitPrice = &unitR
	line.TotalPrice = &baseR
	line.FeedbackAdjustment = adjR
	line.AdjustedCost = &adjustedR
	line.WithMargin = &withMarginR
	line.Confidence = best.Confidence
	line.PricingMethod = model.MethodSemanticSearch
	line.PricingDetails = details

	return line, nil
}
