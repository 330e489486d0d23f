package emission

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultFactor is used when a category ID is not in the table.
const DefaultFactor = 0.2

// Category is a fixed activity classification with its base CO2 coefficient.
type Category struct {
	ID     string
	Label  string
	Factor float64
}

var categories = []Category{
	{ID: "transport", Label: "Transport", Factor: 0.2},
	{ID: "food", Label: "Food", Factor: 0.15},
	{ID: "electricity", Label: "Electricity", Factor: 0.5},
	{ID: "shopping", Label: "Shopping", Factor: 0.3},
	{ID: "waste", Label: "Waste", Factor: 0.1},
}

var titleCaser = cases.Title(language.English)

// Categories returns the category table in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Lookup returns the category with the given ID.
func Lookup(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Factor returns the coefficient for id, or DefaultFactor if id is unknown.
func Factor(id string) float64 {
	c, ok := Lookup(id)
	if !ok {
		return DefaultFactor
	}
	return c.Factor
}

// Label returns the display label for id. Unknown IDs are title-cased.
func Label(id string) string {
	c, ok := Lookup(id)
	if ok {
		return c.Label
	}
	return titleCaser.String(id)
}
