// Package rates holds the benchmark labor-rate table, the phase and regional
// modifier tables, and the duration parser.
package rates

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FallbackKey is the entry used when a category or region is not in its table.
const FallbackKey = "default"

// Range is a published low–high hourly-cost range for a labor category.
type Range struct {
	Low  float64 `yaml:"low" mapstructure:"low"`
	High float64 `yaml:"high" mapstructure:"high"`
}

// Midpoint is the single hourly rate derived from the range. It is never
// stored; the range is the only source of truth.
func (r Range) Midpoint() float64 {
	return (r.Low + r.High) / 2.0
}

// Tables bundles the three lookup tables. Keys are stored lower-cased;
// lookups are case-insensitive. Immutable after construction.
type Tables struct {
	Ranges  map[string]Range   `yaml:"ranges" mapstructure:"ranges"`
	Phases  map[string]float64 `yaml:"phases" mapstructure:"phases"`
	Regions map[string]float64 `yaml:"regions" mapstructure:"regions"`
}

// Default returns the compiled-in French artisan benchmark tables.
// Sources: Habitatpresto, Travaux.com, Ootravaux, prix-travaux-m2.com.
func Default() *Tables {
	return &Tables{
		Ranges: map[string]Range{
			"plumbing":   {Low: 40, High: 70},
			"electrical": {Low: 35, High: 95},
			"tiling":     {Low: 30, High: 50},
			"painting":   {Low: 25, High: 50},
			"carpentry":  {Low: 40, High: 60},
			"general":    {Low: 35, High: 45},
			FallbackKey:  {Low: 35, High: 45},
		},
		Phases: map[string]float64{
			"prep":    1.0,
			"install": 1.25,
			"finish":  1.1,
		},
		Regions: map[string]float64{
			"ile-de-france": 1.15,
			"paris":         1.15,
			"occitanie":     1.00,
			FallbackKey:     1.00,
		},
	}
}

// RateFor returns the benchmark range for a category along with the table key
// that matched. Unknown categories fall back to the "default" entry.
func (t *Tables) RateFor(category string) (Range, string) {
	key := strings.ToLower(strings.TrimSpace(category))
	if r, ok := t.Ranges[key]; ok {
		return r, key
	}
	return t.Ranges[FallbackKey], FallbackKey
}

// PhaseFor returns the multiplier for a phase, or 1.0 when the phase is not
// in the table. The second result reports whether the phase was recognized.
func (t *Tables) PhaseFor(phase string) (float64, bool) {
	key := strings.ToLower(strings.TrimSpace(phase))
	if m, ok := t.Phases[key]; ok {
		return m, true
	}
	return 1.0, false
}

// RegionFor returns the modifier for a region. Accents are stripped before
// lookup so "Île-de-France" matches "ile-de-france". Unknown regions return
// the default modifier; the second result reports whether the region matched.
func (t *Tables) RegionFor(region string) (float64, bool) {
	key := strings.ToLower(strings.TrimSpace(stripAccents(region)))
	if key == "" {
		return t.Regions[FallbackKey], false
	}
	if m, ok := t.Regions[key]; ok && key != FallbackKey {
		return m, true
	}
	return t.Regions[FallbackKey], false
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}
