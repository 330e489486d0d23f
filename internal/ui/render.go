package ui

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
)

// toastTarget is the out-of-band swap that appends to the layout's toast
// container.
const toastTarget = "beforeend:#toast-container"

func Render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	RenderStatus(w, r, http.StatusOK, c)
}

// RenderStatus renders c into a buffer first, so a failing component turns
// into a 500 instead of a truncated page.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		slog.Error("render failed", "error", err, "path", r.URL.Path)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("response write failed", "error", err, "path", r.URL.Path)
	}
}

// RenderOOB writes c wrapped for an htmx out-of-band swap into target.
func RenderOOB(w http.ResponseWriter, r *http.Request, c templ.Component, target string) {
	RenderStatus(w, r, http.StatusOK, oob(target, c))
}

// RenderToast appends a toast to the page's toast container.
func RenderToast(w http.ResponseWriter, r *http.Request, c templ.Component) {
	RenderOOB(w, r, c, toastTarget)
}
