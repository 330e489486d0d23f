package model

import (
	"time"
)

// Activity is a single logged action with its CO2 estimate in kg.
type Activity struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CO2         float64   `json:"co2"`
	Timestamp   time.Time `json:"timestamp"`
}

// CategoryBreakdown is the per-category share of a dashboard.
type CategoryBreakdown struct {
	Category string
	Label    string
	TotalCO2 float64
	Count    int
}

// DashboardSummary is the view model behind the dashboard page.
type DashboardSummary struct {
	TotalCO2      float64
	Count         int
	ImpactLabel   string
	ImpactPercent int
	Recent        []Activity // newest first
	Breakdown     []CategoryBreakdown
}

func (d DashboardSummary) IsEmpty() bool {
	return d.Count == 0
}
