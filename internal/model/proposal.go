// Package model defines the request, response and ledger types shared by the
// pricing engine.
package model

// ProposalMetadata carries free-text context from the intake form. The engine
// only interprets Region; the rest is echoed back opaquely.
type ProposalMetadata struct {
	City     string `json:"city"`
	Region   string `json:"region"`
	JobType  string `json:"jobType"`
	Language string `json:"language"`
}

// Task is a single labor line in a proposal.
type Task struct {
	ID          string  `json:"id,omitempty"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Zone        string  `json:"zone,omitempty"`
	Phase       string  `json:"phase"`
	Unit        string  `json:"unit,omitempty"`
	Quantity    float64 `json:"quantity"`
	Duration    string  `json:"duration"`
}

// Material is a single product line in a proposal.
type Material struct {
	Label    string   `json:"label"`
	Unit     string   `json:"unit,omitempty"`
	Quantity float64  `json:"quantity"`
	UsedIn   []string `json:"usedIn,omitempty"`
}

// Proposal is the full pricing request.
type Proposal struct {
	Title            string           `json:"title"`
	Metadata         ProposalMetadata `json:"metadata"`
	Tasks            []Task           `json:"tasks"`
	Materials        []Material       `json:"materials"`
	ContractorMargin float64          `json:"contractor_margin"`
}
