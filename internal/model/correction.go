package model

import "time"

// ItemType distinguishes task and material corrections.
type ItemType string

const (
	ItemTypeTask     ItemType = "task"
	ItemTypeMaterial ItemType = "material"
)

// FeedbackType is the contractor's verdict on an estimated price.
type FeedbackType string

const (
	FeedbackTooLow  FeedbackType = "too_low"
	FeedbackTooHigh FeedbackType = "too_high"
	FeedbackCorrect FeedbackType = "correct"
	FeedbackOther   FeedbackType = "other"
)

// Correction is one contractor-submitted price observation. Records are
// append-only: the ledger never updates or deletes them, and contradictory
// corrections are reconciled statistically by the adjustment estimator.
type Correction struct {
	ID           int64        `json:"id"`
	ProposalID   string       `json:"proposal_id"`
	ItemType     ItemType     `json:"item_type"`
	ItemLabel    string       `json:"item_label"`
	FeedbackType FeedbackType `json:"feedback_type"`
	ActualPrice  *float64     `json:"actual_price,omitempty"`
	Comment      string       `json:"comment,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
