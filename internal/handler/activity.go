package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/ecoscan/internal/ctxkeys"
	"github.com/templui/ecoscan/internal/emission"
	"github.com/templui/ecoscan/internal/service"
	"github.com/templui/ecoscan/internal/ui"
	"github.com/templui/ecoscan/internal/ui/components/toast"
	"github.com/templui/ecoscan/internal/ui/pages"
	"github.com/templui/ecoscan/internal/validation"
)

const missingInformation = "Please select a category and enter a description"

type ActivityHandler struct {
	activityService *service.ActivityService
	redirectDelay   time.Duration
}

func NewActivityHandler(activityService *service.ActivityService, redirectDelay time.Duration) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		redirectDelay:   redirectDelay,
	}
}

func (h *ActivityHandler) LogActivityPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.LogActivity(pages.LogActivityProps{
		Categories: emission.Categories(),
	}))
}

// LogActivity stores the submitted activity. htmx submissions get a toast
// and a delayed client-side redirect, plain form posts a 303.
func (h *ActivityHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	category := r.FormValue("category")
	description := r.FormValue("description")
	htmx := isHTMX(r)

	activity, err := h.activityService.Log(r.Context(), user.ID, category, description)
	if err != nil {
		title, message, status := "Missing Information", missingInformation, http.StatusUnprocessableEntity
		switch {
		case validation.IsMissingInformation(err):
		case errors.Is(err, validation.ErrUnknownCategory):
			title, message = "Unknown Category", "Please pick one of the listed categories"
		default:
			slog.Error("failed to log activity", "error", err, "user_id", user.ID)
			title, message, status = "Something went wrong", "Your activity could not be saved. Please try again.", http.StatusInternalServerError
		}

		if htmx {
			// htmx only swaps 2xx responses, the toast carries the error
			ui.RenderToast(w, r, toast.Error(title, message))
			return
		}
		ui.RenderStatus(w, r, status, pages.LogActivity(pages.LogActivityProps{
			Categories:  emission.Categories(),
			Category:    category,
			Description: description,
			Error:       message,
		}))
		return
	}

	if !htmx {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	trigger, err := json.Marshal(map[string]any{
		"ecoscan:redirect": map[string]any{
			"url":   "/dashboard",
			"delay": h.redirectDelay.Milliseconds(),
		},
	})
	if err == nil {
		w.Header().Set("HX-Trigger", string(trigger))
	}

	ui.RenderToast(w, r, toast.Success(
		"Activity Logged!",
		fmt.Sprintf("Your %s activity has been recorded.", activity.Category),
	))
}

// Preview renders the live estimate shown under the form.
func (h *ActivityHandler) Preview(w http.ResponseWriter, r *http.Request) {
	co2, ok := h.activityService.Preview(r.FormValue("category"), r.FormValue("description"))
	ui.Render(w, r, pages.EstimatePreview(co2, ok))
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
