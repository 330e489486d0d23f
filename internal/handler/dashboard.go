package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/ecoscan/internal/ctxkeys"
	"github.com/templui/ecoscan/internal/service"
	"github.com/templui/ecoscan/internal/ui"
	"github.com/templui/ecoscan/internal/ui/pages"
)

type DashboardHandler struct {
	activityService *service.ActivityService
}

func NewDashboardHandler(activityService *service.ActivityService) *DashboardHandler {
	return &DashboardHandler{
		activityService: activityService,
	}
}

func (h *DashboardHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	summary, err := h.activityService.Dashboard(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to load dashboard", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	ui.Render(w, r, pages.Dashboard(summary))
}

// Export downloads the user's activity log as JSON.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	data, err := h.activityService.Export(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to export activities", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to export activities", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("ecoscan-activities-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	_, err = w.Write(data)
	if err != nil {
		slog.Error("failed to write export", "error", err, "user_id", user.ID)
	}
}
