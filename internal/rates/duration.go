package rates

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMalformedDuration is returned for duration strings the parser does not
// recognize. Callers must reject the line rather than substitute a default.
var ErrMalformedDuration = eris.New("malformed duration")

const hoursPerDay = 8.0

var (
	reHours   = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?)\s*h(?:ours?|r?s?|eures?)?$`)
	reMinutes = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?)\s*m(?:in(?:ute)?s?)?$`)
	reDays    = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?)\s*(?:days?|jours?|journ[ée]es?)$`)
	reHalfDay = regexp.MustCompile(`(?i)^(?:half[\s-]?day|demi[\s-]?journ[ée]e)$`)
	reOneDay  = regexp.MustCompile(`(?i)^(?:a\s+day|day|jour|journ[ée]e)$`)
	reBare    = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
)

// ParseDuration converts a human-entered duration expression into fractional
// hours. Recognized forms, English and French:
//
//	"3h", "1.5h", "2 hours", "2 heures"
//	"90m", "45 min"
//	"1 day", "2 jours", "half day", "demi-journée"
//	"8"            (bare number, read as hours)
//
// A day is 8 working hours. Unparsable or negative input returns
// ErrMalformedDuration.
func ParseDuration(s string) (float64, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, eris.Wrap(ErrMalformedDuration, "empty duration")
	}

	switch {
	case reHalfDay.MatchString(text):
		return hoursPerDay / 2, nil
	case reOneDay.MatchString(text):
		return hoursPerDay, nil
	}

	for _, p := range []struct {
		re    *regexp.Regexp
		scale float64
	}{
		{reHours, 1},
		{reMinutes, 1.0 / 60.0},
		{reDays, hoursPerDay},
		{reBare, 1},
	} {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		num := m[0]
		if len(m) > 1 {
			num = m[1]
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", "."), 64)
		if err != nil {
			return 0, eris.Wrapf(ErrMalformedDuration, "parse %q", s)
		}
		return v * p.scale, nil
	}

	return 0, eris.Wrapf(ErrMalformedDuration, "unrecognized duration %q", s)
}
