package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/templui/ecoscan/internal/ctxkeys"
	"github.com/templui/ecoscan/internal/model"
	"github.com/templui/ecoscan/internal/service"
	"github.com/templui/ecoscan/internal/ui"
	"github.com/templui/ecoscan/internal/ui/pages"
	"github.com/templui/ecoscan/internal/validation"
)

const (
	oauthStateCookie = "oauth_state"
	oauthTimeout     = 15 * time.Second
)

type AuthHandler struct {
	authService *service.AuthService
	providers   service.OAuthProviders
}

func NewAuthHandler(authService *service.AuthService, providers service.OAuthProviders) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		providers:   providers,
	}
}

func (h *AuthHandler) props(mode string) pages.AuthProps {
	props := pages.AuthProps{Mode: mode}
	for _, name := range slices.Sorted(maps.Keys(h.providers)) {
		props.Providers = append(props.Providers, pages.OAuthOption{Name: name, Label: h.providers[name].Label})
	}
	return props
}

func (h *AuthHandler) renderError(w http.ResponseWriter, r *http.Request, status int, mode, email, message string) {
	props := h.props(mode)
	props.Email = email
	props.Error = message
	ui.RenderStatus(w, r, status, pages.Auth(props))
}

func (h *AuthHandler) AuthPage(w http.ResponseWriter, r *http.Request) {
	mode := pages.AuthModeSignIn
	if r.URL.Query().Get("mode") == pages.AuthModeSignUp {
		mode = pages.AuthModeSignUp
	}
	ui.Render(w, r, pages.Auth(h.props(mode)))
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.renderError(w, r, http.StatusUnprocessableEntity, pages.AuthModeSignIn, email, "Email and password are required")
		return
	}

	user, err := h.authService.SignIn(r.Context(), email, password)
	if err != nil {
		slog.Warn("sign in failed", "error", err, "email", email)
		message := "Invalid email or password"
		switch {
		case errors.Is(err, service.ErrEmailNotVerified), errors.Is(err, service.ErrPasswordlessAccount):
			message = err.Error()
		case !errors.Is(err, service.ErrInvalidCredentials):
			message = "An error occurred. Please try again."
		}
		h.renderError(w, r, http.StatusUnauthorized, pages.AuthModeSignIn, email, message)
		return
	}

	if !h.startSession(w, r, user) {
		return
	}

	slog.Info("user signed in with password", "user_id", user.ID, "email", user.Email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.renderError(w, r, http.StatusUnprocessableEntity, pages.AuthModeSignUp, email, "Email and password are required")
		return
	}

	_, err := h.authService.SignUp(r.Context(), email, password)
	if err != nil {
		slog.Warn("sign up failed", "error", err, "email", email)
		message := "An error occurred. Please try again."
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			message = "Please provide a valid email address"
		case errors.Is(err, service.ErrEmailAlreadyExists),
			errors.Is(err, validation.ErrPasswordTooShort),
			errors.Is(err, validation.ErrPasswordTooLong),
			errors.Is(err, validation.ErrPasswordCommon):
			message = err.Error()
		}
		h.renderError(w, r, http.StatusUnprocessableEntity, pages.AuthModeSignUp, email, message)
		return
	}

	props := h.props(pages.AuthModeSignIn)
	props.Email = email
	props.Notice = "Account created! Check your email and confirm your address, then sign in."
	ui.Render(w, r, pages.Auth(props))
}

// VerifyEmail confirms the address from the email link and signs the user in.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	user, err := h.authService.VerifyEmail(r.Context(), token)
	if err != nil {
		slog.Warn("email verification failed", "error", err)
		message := "An error occurred. Please try again."
		if errors.Is(err, service.ErrInvalidVerification) {
			message = "Invalid or expired confirmation link. Please sign up again."
		}
		h.renderError(w, r, http.StatusBadRequest, pages.AuthModeSignIn, "", message)
		return
	}

	if !h.startSession(w, r, user) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := ctxkeys.Session(r.Context()); sess != nil {
		err := h.authService.SignOut(r.Context(), sess.ID)
		if err != nil {
			slog.Error("failed to sign out", "error", err, "session_id", sess.ID)
		}
	}

	h.authService.ClearJWTCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// OAuthStart redirects to the provider's consent screen.
func (h *AuthHandler) OAuthStart(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := h.providers.Get(name)
		if err != nil {
			ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
			return
		}

		// State token guards the callback against CSRF
		state := generateOAuthState()

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			Secure:   secureCookies(r),
			SameSite: http.SameSiteLaxMode,
			MaxAge:   600, // 10 minutes
		})

		url := provider.Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}

// OAuthCallback finishes sign-in for the named provider.
func (h *AuthHandler) OAuthCallback(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := h.providers.Get(name)
		if err != nil {
			ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
			return
		}

		state := r.URL.Query().Get("state")
		cookie, err := r.Cookie(oauthStateCookie)
		if err != nil || state == "" || cookie.Value != state {
			slog.Warn("oauth state validation failed", "error", err, "provider", name)
			h.renderError(w, r, http.StatusBadRequest, pages.AuthModeSignIn, "", "OAuth authentication failed. Please try again.")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:   oauthStateCookie,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})

		code := r.URL.Query().Get("code")
		if code == "" {
			slog.Warn("oauth callback missing code", "provider", name)
			h.renderError(w, r, http.StatusBadRequest, pages.AuthModeSignIn, "", "OAuth authentication failed. Please try again.")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), oauthTimeout)
		defer cancel()

		email, err := provider.Email(ctx, code)
		if err != nil {
			slog.Error("oauth email lookup failed", "error", err, "provider", name)
			h.renderError(w, r, http.StatusBadGateway, pages.AuthModeSignIn, "", "OAuth authentication failed. Please try again.")
			return
		}

		user, err := h.authService.AuthenticateOAuth(ctx, email, name)
		if err != nil {
			slog.Error("oauth authentication failed", "error", err, "email", email, "provider", name)
			h.renderError(w, r, http.StatusUnauthorized, pages.AuthModeSignIn, "", "Authentication failed. Please try again.")
			return
		}

		if !h.startSession(w, r, user) {
			return
		}

		slog.Info("user signed in with oauth", "user_id", user.ID, "email", user.Email, "provider", name)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User) bool {
	token, expires, err := h.authService.StartSession(r.Context(), user)
	if err != nil {
		slog.Error("failed to start session", "error", err, "user_id", user.ID)
		h.renderError(w, r, http.StatusInternalServerError, pages.AuthModeSignIn, user.Email, "An error occurred. Please try again.")
		return false
	}

	h.authService.SetJWTCookie(w, token, expires)
	return true
}

func secureCookies(r *http.Request) bool {
	cfg := ctxkeys.Config(r.Context())
	return cfg != nil && cfg.SecureCookies()
}

func generateOAuthState() string {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
