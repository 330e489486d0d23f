package handler

import (
	"log/slog"
	"net/http"

	"github.com/templui/ecoscan/internal/service"
	"github.com/templui/ecoscan/internal/ui"
	"github.com/templui/ecoscan/internal/ui/pages"
)

type HomeHandler struct {
	landingService *service.LandingService
}

func NewHomeHandler(landingService *service.LandingService) *HomeHandler {
	return &HomeHandler{
		landingService: landingService,
	}
}

func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	landing, err := h.landingService.Landing()
	if err != nil {
		slog.Error("failed to load landing content", "error", err)
		http.Error(w, "Failed to load page", http.StatusInternalServerError)
		return
	}

	ui.Render(w, r, pages.Home(landing))
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
}
