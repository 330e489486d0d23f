package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/ecoscan/internal/ctxkeys"
	"github.com/templui/ecoscan/internal/model"
	"github.com/templui/ecoscan/internal/observability"
	"github.com/templui/ecoscan/internal/service"
	"github.com/templui/ecoscan/internal/session"
)

const defaultKeepAlive = 25 * time.Second

type SessionHandler struct {
	authService *service.AuthService
	keepAlive   time.Duration
}

func NewSessionHandler(authService *service.AuthService) *SessionHandler {
	return &SessionHandler{
		authService: authService,
		keepAlive:   defaultKeepAlive,
	}
}

// Events streams session changes to an open page. A gate observes the
// request's session for as long as the page stays connected and sends a
// redirect event once the session is revoked or expires.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	leave := make(chan struct{}, 1)
	gate := session.NewGate(func() {
		select {
		case leave <- struct{}{}:
		default:
		}
	})

	var subscribe session.SubscribeFunc
	sess := ctxkeys.Session(r.Context())
	if sess != nil {
		subscribe = func(l session.Listener) func() {
			return h.authService.Subscribe(sess.ID, l)
		}
	}

	if !gate.Mount(sess, subscribe) {
		writeRedirectEvent(w, rc)
		return
	}
	defer gate.Unmount()

	// A sign-out published between the auth lookup and Mount was missed.
	current, err := h.authService.Session(r.Context(), sess.ID)
	switch {
	case errors.Is(err, service.ErrNoSession):
		gate.Check(nil)
	case err != nil:
		slog.Warn("failed to reload session", "error", err, "session_id", sess.ID)
	default:
		gate.Check(current)
	}

	expiry := time.NewTimer(time.Until(expiresAt(sess, current)))
	defer expiry.Stop()

	done := observability.SessionStreamOpened()
	defer done()

	_, err = fmt.Fprint(w, ": connected\n\n")
	if err == nil {
		err = rc.Flush()
	}
	if err != nil {
		slog.Warn("session stream write failed", "error", err, "session_id", sess.ID)
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-leave:
			writeRedirectEvent(w, rc)
			return
		case <-expiry.C:
			writeRedirectEvent(w, rc)
			return
		case <-ticker.C:
			_, err = fmt.Fprint(w, ": ping\n\n")
			if err == nil {
				err = rc.Flush()
			}
			if err != nil {
				return
			}
		}
	}
}

// expiresAt is the earlier of the request's and the reloaded expiry.
func expiresAt(sess, current *model.Session) time.Time {
	if current != nil && current.ExpiresAt.Before(sess.ExpiresAt) {
		return current.ExpiresAt
	}
	return sess.ExpiresAt
}

func writeRedirectEvent(w http.ResponseWriter, rc *http.ResponseController) {
	_, err := fmt.Fprint(w, "event: redirect\ndata: /auth\n\n")
	if err == nil {
		err = rc.Flush()
	}
	if err != nil {
		slog.Warn("failed to send session redirect", "error", err)
	}
}
