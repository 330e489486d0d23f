package service

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/templui/ecoscan/internal/markdown"
	"github.com/templui/ecoscan/internal/model"
)

var defaultLanding = model.Landing{
	Title:   "Track Your Carbon Footprint",
	Tagline: "Log everyday activities and see their estimated CO₂ impact.",
	CTA:     "Start Tracking",
	Features: []model.Feature{
		{Title: "Log Activities", Description: "Record transport, food, electricity, shopping and waste."},
		{Title: "Instant Estimates", Description: "Every activity gets an estimated CO₂ value."},
		{Title: "Your Dashboard", Description: "See your total footprint and recent activities."},
	},
}

// landingPage is the front matter of home.md. Unset fields keep the
// built-in copy.
type landingPage struct {
	Title    string          `yaml:"title"`
	Tagline  string          `yaml:"tagline"`
	CTA      string          `yaml:"cta"`
	Features []model.Feature `yaml:"features"`
}

// LandingService loads the home page from <content>/home.md once.
type LandingService struct {
	renderer    *markdown.Renderer
	contentPath string

	once    sync.Once
	landing *model.Landing
	err     error
}

func NewLandingService(contentPath string) *LandingService {
	return &LandingService{
		renderer:    markdown.NewRenderer(),
		contentPath: contentPath,
	}
}

// Landing returns the parsed home page, or built-in copy when the file is missing.
func (s *LandingService) Landing() (*model.Landing, error) {
	s.once.Do(func() {
		s.landing, s.err = s.load()
	})
	return s.landing, s.err
}

func (s *LandingService) load() (*model.Landing, error) {
	landing := defaultLanding

	path := filepath.Join(s.contentPath, "home.md")
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("landing content missing, using defaults", "path", path)
		return &landing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read landing content: %w", err)
	}

	var page landingPage
	html, err := s.renderer.Render(content, &page)
	if err != nil {
		return nil, fmt.Errorf("landing content %s: %w", path, err)
	}

	landing.HTML = string(html)
	landing.Title = cmp.Or(page.Title, landing.Title)
	landing.Tagline = cmp.Or(page.Tagline, landing.Tagline)
	landing.CTA = cmp.Or(page.CTA, landing.CTA)
	if len(page.Features) > 0 {
		landing.Features = page.Features
	}
	return &landing, nil
}
