package pages

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/ecoscan/internal/emission"
	"github.com/templui/ecoscan/internal/model"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestDashboardEmpty(t *testing.T) {
	html := render(t, Dashboard(model.DashboardSummary{ImpactLabel: emission.ImpactExcellent, ImpactPercent: 25}))

	assert.Contains(t, html, "Recent Activities")
	assert.Contains(t, html, "No activities yet")
	assert.Contains(t, html, `<div class="text-3xl font-bold">0.00</div>`)
	assert.Contains(t, html, `aria-valuenow="25"`)
	assert.Contains(t, html, "w-1/4")
	assert.NotContains(t, html, "bg-gray-400")
	assert.NotContains(t, html, "/dashboard/export")
}

func TestDashboardListsRecentActivities(t *testing.T) {
	ts := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	summary := model.DashboardSummary{
		TotalCO2:      2.3,
		Count:         2,
		ImpactLabel:   emission.ImpactExcellent,
		ImpactPercent: 25,
		Recent: []model.Activity{
			{ID: "2", Category: "food", Description: "ate <b>lunch</b>", CO2: 0.3, Timestamp: ts},
			{ID: "1", Category: "transport", Description: "drove 20 km", CO2: 2, Timestamp: ts},
		},
		Breakdown: []model.CategoryBreakdown{
			{Category: "transport", Label: "Transport", TotalCO2: 2, Count: 1},
		},
	}

	html := render(t, Dashboard(summary))
	assert.Contains(t, html, "2.30")
	assert.Contains(t, html, "ate &lt;b&gt;lunch&lt;/b&gt;")
	assert.Contains(t, html, "0.3 kg")
	assert.Contains(t, html, "Mar 4, 2025")
	assert.Contains(t, html, "bg-green-500")
	assert.Contains(t, html, "/dashboard/export")
	assert.Contains(t, html, "By Category")
	assert.Less(t, bytes.Index([]byte(html), []byte("ate &lt;b&gt;")), bytes.Index([]byte(html), []byte("drove 20 km")))
}

func TestCategoryBadgeClass(t *testing.T) {
	assert.Contains(t, CategoryBadgeClass("transport"), "bg-blue-500")
	assert.NotContains(t, CategoryBadgeClass("transport"), "bg-gray-500")
	assert.Contains(t, CategoryBadgeClass("gardening"), "bg-gray-500")
}

func TestLogActivityKeepsValues(t *testing.T) {
	html := render(t, LogActivity(LogActivityProps{
		Categories:  emission.Categories(),
		Category:    "waste",
		Description: "threw away plastic",
	}))

	assert.Contains(t, html, `<option value="waste" selected>Waste</option>`)
	assert.Contains(t, html, `value="threw away plastic"`)
	assert.Contains(t, html, `hx-get="/log-activity/preview"`)
}

func TestEstimatePreview(t *testing.T) {
	assert.Contains(t, render(t, EstimatePreview(1.5, true)), "1.50 kg")
	assert.Contains(t, render(t, EstimatePreview(0, false)), "Pick a category")
}

func TestAuthModes(t *testing.T) {
	signIn := render(t, Auth(AuthProps{Error: "Invalid email or password"}))
	assert.Contains(t, signIn, `action="/auth/sign-in"`)
	assert.Contains(t, signIn, "Invalid email or password")
	assert.Contains(t, signIn, `href="/auth?mode=signup"`)

	signUp := render(t, Auth(AuthProps{
		Mode:      AuthModeSignUp,
		Providers: []OAuthOption{{Name: "github", Label: "GitHub"}},
	}))
	assert.Contains(t, signUp, `action="/auth/sign-up"`)
	assert.Contains(t, signUp, "Create your account")
	assert.Contains(t, signUp, `href="/auth/github"`)
}

func TestHomeRendersLanding(t *testing.T) {
	html := render(t, Home(&model.Landing{
		Title:    "Track It",
		CTA:      "Start",
		Features: []model.Feature{{Title: "Fast", Description: "Very"}},
		HTML:     "<h2>How</h2>",
	}))

	assert.Contains(t, html, "Track It")
	assert.Contains(t, html, "Fast")
	assert.Contains(t, html, "<h2>How</h2>")
}

func TestNotFound(t *testing.T) {
	assert.Contains(t, render(t, NotFound()), "Page not found")
}
