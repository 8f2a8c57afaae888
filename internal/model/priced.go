package model

// Pricing methods reported per line.
const (
	MethodLaborRate      = "labor_rate_estimation"
	MethodSemanticSearch = "semantic_search"
	MethodNoMatch        = "no_match"
)

// Currency is the only currency the engine prices in.
const Currency = "EUR"

// PricedTask is a task line with every pricing factor recorded.
type PricedTask struct {
	ID          string  `json:"id,omitempty"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Zone        string  `json:"zone,omitempty"`
	Phase       string  `json:"phase"`
	Unit        string  `json:"unit,omitempty"`
	Quantity    float64 `json:"quantity"`
	Duration    string  `json:"duration"`

	HourlyRate         float64 `json:"hourly_rate"`
	DurationHours      float64 `json:"duration_hours"`
	PhaseMultiplier    float64 `json:"phase_multiplier"`
	RegionalModifier   float64 `json:"regional_modifier"`
	BaseCost           float64 `json:"base_cost"`
	FeedbackAdjustment float64 `json:"feedback_adjustment"`
	AdjustedCost       float64 `json:"adjusted_cost"`
	WithMargin         float64 `json:"with_margin"`
	PricingMethod      string  `json:"pricing_method"`
	PricingDetails     string  `json:"pricing_details"`
}

// CatalogMatch is the best product hit returned by the semantic-match service.
type CatalogMatch struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Unit       string  `json:"unit,omitempty"`
	Category   string  `json:"category,omitempty"`
	URL        string  `json:"url,omitempty"`
	ProductID  string  `json:"product_id,omitempty"`
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence_score"`
}

// PricedMaterial is a material line. Monetary fields are nil when no catalog
// match was found; such lines are excluded from the proposal totals.
type PricedMaterial struct {
	Label    string   `json:"label"`
	Unit     string   `json:"unit,omitempty"`
	Quantity float64  `json:"quantity"`
	UsedIn   []string `json:"usedIn,omitempty"`

	Match              *CatalogMatch `json:"match,omitempty"`
	UnitPrice          *float64      `json:"unit_price"`
	TotalPrice         *float64      `json:"total_price"`
	FeedbackAdjustment float64       `json:"feedback_adjustment"`
	AdjustedCost       *float64      `json:"adjusted_cost"`
	WithMargin         *float64      `json:"with_margin"`
	Confidence         float64       `json:"confidence_score"`
	PricingMethod      string        `json:"pricing_method"`
	PricingDetails     string        `json:"pricing_details"`
}

// LineError reports a single rejected line. The rest of the proposal is still
// priced.
type LineError struct {
	Kind  string `json:"kind"` // "task" or "material"
	Index int    `json:"index"`
	Label string `json:"label"`
	Error string `json:"error"`
}

// Summary aggregates the monetary totals of a priced proposal.
type Summary struct {
	TotalTasks     float64 `json:"total_tasks"`
	TotalMaterials float64 `json:"total_materials"`
	Total          float64 `json:"total"`
	MarginApplied  float64 `json:"margin_applied"`
	Currency       string  `json:"currency"`
}

// PricedProposal is the full pricing response.
type PricedProposal struct {
	Title           string           `json:"title"`
	Metadata        ProposalMetadata `json:"metadata"`
	PricedTasks     []PricedTask     `json:"priced_tasks"`
	PricedMaterials []PricedMaterial `json:"priced_materials"`
	FailedLines     []LineError      `json:"failed_lines,omitempty"`
	Summary         Summary          `json:"summary"`
}
