package rates

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Load reads benchmark tables from a YAML file. Sections left empty in the
// file keep the compiled-in defaults. Keys are lower-cased on load, and every
// table is guaranteed to carry its fallback entry.
func Load(path string) (*Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rates: read %s", path)
	}

	var file Tables
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, eris.Wrapf(err, "rates: parse %s", path)
	}

	t := Default()
	if len(file.Ranges) > 0 {
		t.Ranges = lowerRangeKeys(file.Ranges)
		if _, ok := t.Ranges[FallbackKey]; !ok {
			t.Ranges[FallbackKey] = Default().Ranges[FallbackKey]
		}
	}
	if len(file.Phases) > 0 {
		t.Phases = lowerFactorKeys(file.Phases)
	}
	if len(file.Regions) > 0 {
		t.Regions = lowerFactorKeys(file.Regions)
		if _, ok := t.Regions[FallbackKey]; !ok {
			t.Regions[FallbackKey] = 1.0
		}
	}

	for k, r := range t.Ranges {
		if r.Low < 0 || r.High < r.Low {
			return nil, eris.Errorf("rates: invalid range for %q: low=%g high=%g", k, r.Low, r.High)
		}
	}
	for k, f := range t.Phases {
		if f < 0 {
			return nil, eris.Errorf("rates: negative phase multiplier for %q", k)
		}
	}
	for k, f := range t.Regions {
		if f < 0 {
			return nil, eris.Errorf("rates: negative regional modifier for %q", k)
		}
	}

	return t, nil
}

func lowerRangeKeys(in map[string]Range) map[string]Range {
	out := make(map[string]Range, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func lowerFactorKeys(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
