package model

// Feature is one card in the landing page feature grid.
type Feature struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Landing is the content of the public home page.
type Landing struct {
	Title    string
	Tagline  string
	CTA      string
	Features []Feature
	HTML     string
}
