package emission

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Default quantities used when a description names a unit without a number.
const (
	DefaultDistanceKm = 5
	DefaultHours      = 1
	DefaultKWh        = 3
)

// Quantity patterns. Each captures the first decimal number that directly
// precedes its unit token, allowing whitespace in between ("10km", "10 km").
var (
	kmPattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*km`)
	hourPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hour|hr)`)
	kwhPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*kwh`)
)

// rule is one keyword branch of the estimator. Rules are tried in order and
// only the first match is applied.
type rule struct {
	keywords []string
	apply    func(desc string, base float64) float64
}

var rules = []rule{
	{
		keywords: []string{"km"},
		apply: func(desc string, base float64) float64 {
			return quantity(kmPattern, desc, DefaultDistanceKm) * base * 0.5
		},
	},
	{
		keywords: []string{"hour", "hr"},
		apply: func(desc string, base float64) float64 {
			return quantity(hourPattern, desc, DefaultHours) * base * 1.2
		},
	},
	{
		keywords: []string{"meal", "lunch", "dinner"},
		apply: func(_ string, base float64) float64 {
			return base * 2
		},
	},
	{
		keywords: []string{"kwh", "electricity"},
		apply: func(desc string, base float64) float64 {
			return quantity(kwhPattern, desc, DefaultKWh) * base * 0.9
		},
	},
	{
		keywords: []string{"plastic", "waste"},
		apply: func(_ string, base float64) float64 {
			return base * 1.5
		},
	},
	{
		keywords: []string{"cloth", "buy", "shopping"},
		apply: func(_ string, base float64) float64 {
			return base * 3
		},
	},
}

// Estimate returns the CO2 estimate in kg for an activity of the given
// category described by free text. The result is rounded to two decimals.
//
// The category coefficient is scaled by a quantity extracted from the
// description: the first rule whose keyword appears in the lower-cased text
// decides the formula, so "drove 10 km to buy clothes" is a distance. A
// description that matches no rule is worth five times the coefficient.
func Estimate(categoryID, description string) float64 {
	base := Factor(categoryID)
	desc := strings.ToLower(description)

	for _, r := range rules {
		if containsAny(desc, r.keywords) {
			return Round(r.apply(desc, base))
		}
	}
	return Round(base * 5)
}

// Round rounds x to two decimal places, halves away from zero.
func Round(x float64) float64 {
	return math.Round(x*100) / 100
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// quantity extracts the first number matched by pattern, or def if there is
// none or it does not parse.
func quantity(pattern *regexp.Regexp, desc string, def float64) float64 {
	matches := pattern.FindStringSubmatch(desc)
	if matches == nil {
		return def
	}
	v, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return def
	}
	return v
}
