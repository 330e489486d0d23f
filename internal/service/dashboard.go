package service

import (
	"slices"
	"sort"

	"github.com/templui/ecoscan/internal/emission"
	"github.com/templui/ecoscan/internal/model"
)

// Summarize aggregates a whole activity log for the dashboard. activities
// is not modified; Recent is a newest-first copy.
func Summarize(activities []model.Activity) model.DashboardSummary {
	var total float64
	byCategory := map[string]*model.CategoryBreakdown{}

	for _, a := range activities {
		total += a.CO2

		b, ok := byCategory[a.Category]
		if !ok {
			b = &model.CategoryBreakdown{
				Category: a.Category,
				Label:    emission.Label(a.Category),
			}
			byCategory[a.Category] = b
		}
		b.TotalCO2 += a.CO2
		b.Count++
	}

	breakdown := make([]model.CategoryBreakdown, 0, len(byCategory))
	for _, b := range byCategory {
		b.TotalCO2 = emission.Round(b.TotalCO2)
		breakdown = append(breakdown, *b)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].TotalCO2 != breakdown[j].TotalCO2 {
			return breakdown[i].TotalCO2 > breakdown[j].TotalCO2
		}
		return breakdown[i].Category < breakdown[j].Category
	})

	recent := slices.Clone(activities)
	if recent == nil {
		recent = []model.Activity{}
	}
	slices.Reverse(recent)

	// Records hold two-decimal values; the sum is rounded back to match.
	total = emission.Round(total)
	impact := emission.Classify(total)
	return model.DashboardSummary{
		TotalCO2:      total,
		Count:         len(activities),
		ImpactLabel:   impact.Label,
		ImpactPercent: impact.Percent,
		Recent:        recent,
		Breakdown:     breakdown,
	}
}
