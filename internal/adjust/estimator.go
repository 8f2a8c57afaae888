// Package adjust computes feedback-driven price corrections from the ledger.
package adjust

import (
	"context"
	"math"
	"time"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/batimetric/pricing-engine/internal/model"
)

const (
	// SimilarityThreshold is the cut below which a ledger record is ignored.
	// Records scoring exactly the threshold are excluded. This is a design
	// invariant, not a tunable.
	SimilarityThreshold = 0.7

	// DecayDays controls the exponential age decay of corrections: a record
	// 30 days old carries weight exp(-1) ≈ 0.368 relative to a fresh one.
	DecayDays = 30.0
)

// Ledger is the read side of the correction store the estimator consumes.
type Ledger interface {
	ListPriced(ctx context.Context) ([]model.Correction, error)
}

// Estimator turns accumulated corrections into a single additive delta for a
// freshly computed base price.
type Estimator struct {
	ledger Ledger
}

// NewEstimator creates an Estimator. Returns nil if the ledger is nil.
func NewEstimator(ledger Ledger) *Estimator {
	if ledger == nil {
		return nil
	}
	return &Estimator{ledger: ledger}
}

// Estimate returns the time-decayed, similarity-weighted average of
// (actual_price - basePrice) over ledger records whose label is similar to
// the query label. It is a pure read over the snapshot taken by ListPriced.
//
// Exactly 0.0 is returned when the label is empty, no record survives the
// similarity threshold, or the ledger is unreachable — history is
// best-effort and must never fail a price computation.
func (e *Estimator) Estimate(ctx context.Context, itemLabel string, basePrice float64, asOf time.Time) float64 {
	if itemLabel == "" {
		return 0.0
	}

	records, err := e.ledger.ListPriced(ctx)
	if err != nil {
		zap.L().Warn("adjust: ledger unreachable, pricing without history",
			zap.String("item_label", itemLabel),
			zap.Error(err),
		)
		return 0.0
	}

	var numerator, denominator float64
	matched := 0
	for _, rec := range records {
		if rec.ActualPrice == nil {
			continue
		}
		if Similarity(itemLabel, rec.ItemLabel) <= SimilarityThreshold {
			continue
		}

		ageDays := asOf.Sub(rec.CreatedAt).Hours() / 24.0
		if ageDays < 0 { // clock skew clamps to "now"
			ageDays = 0
		}
		weight := math.Exp(-ageDays / DecayDays)
		delta := *rec.ActualPrice - basePrice

		numerator += delta * weight
		denominator += weight
		matched++
	}

	if denominator == 0.0 {
		return 0.0
	}

	adjustment := numerator / denominator
	zap.L().Debug("adjust: correction applied",
		zap.String("item_label", itemLabel),
		zap.Float64("base_price", basePrice),
		zap.Int("matched_records", matched),
		zap.Float64("adjustment", adjustment),
	)
	return adjustment
}

// Similarity is the normalized symmetric string similarity used for label
// matching, in [0,1]. Any sequence-similarity function meeting that contract
// is substitutable; this one is Levenshtein-based and case-sensitive.
func Similarity(a, b string) float64 {
	return levenshtein.Similarity(a, b, nil)
}
