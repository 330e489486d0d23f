package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/templui/ecoscan/internal/model"
	"github.com/templui/ecoscan/internal/observability"
	"github.com/templui/ecoscan/internal/repository"
	"github.com/templui/ecoscan/internal/session"
	"github.com/templui/ecoscan/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const AuthCookieName = "auth_token"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailAlreadyExists  = errors.New("an account with this email already exists")
	ErrEmailNotVerified    = errors.New("email not confirmed, check your inbox for the confirmation link")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrPasswordlessAccount = errors.New("this account signs in with Google or GitHub")
	ErrInvalidVerification = errors.New("invalid or expired confirmation link")
	ErrNoSession           = errors.New("no active session")
)

type AuthService struct {
	userRepository         repository.UserRepository
	tokenRepository        repository.TokenRepository
	sessionRepository      repository.SessionRepository
	mailer                 Mailer
	broker                 *session.Broker
	jwtSecret              string
	secureCookies          bool
	jwtExpiry              time.Duration
	tokenEmailVerifyExpiry time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenRepository repository.TokenRepository,
	sessionRepository repository.SessionRepository,
	mailer Mailer,
	broker *session.Broker,
	jwtSecret string,
	secureCookies bool,
	jwtExpiry time.Duration,
	tokenEmailVerifyExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:         userRepository,
		tokenRepository:        tokenRepository,
		sessionRepository:      sessionRepository,
		mailer:                 mailer,
		broker:                 broker,
		jwtSecret:              jwtSecret,
		secureCookies:          secureCookies,
		jwtExpiry:              jwtExpiry,
		tokenEmailVerifyExpiry: tokenEmailVerifyExpiry,
	}
}

// SignUp creates a password account and sends the confirmation email.
// The account can sign in once the email is confirmed.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, err
	}

	existing, err := s.userRepository.ByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil && existing.IsVerified() {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if existing != nil {
		return s.restartSignUp(ctx, existing, hash)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hash,
		CreatedAt:    time.Now(),
	}
	err = s.userRepository.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	err = s.sendVerification(ctx, user)
	if err != nil {
		return nil, err
	}

	observability.RecordAuthEvent("sign_up", "password")
	slog.Info("new user signed up", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// restartSignUp lets an unconfirmed account sign up again: the new password
// replaces the old one and a fresh confirmation link supersedes any pending one.
func (s *AuthService) restartSignUp(ctx context.Context, user *model.User, hash string) (*model.User, error) {
	user.PasswordHash = &hash
	err := s.userRepository.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	err = s.sendVerification(ctx, user)
	if err != nil {
		return nil, err
	}

	observability.RecordAuthEvent("sign_up_retry", "password")
	slog.Info("confirmation link reissued", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *model.User) error {
	err := s.tokenRepository.RevokePending(ctx, user.ID, model.TokenTypeEmailVerify)
	if err != nil {
		slog.Warn("failed to delete old verification tokens", "error", err, "user_id", user.ID)
	}

	verificationToken, err := s.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	err = s.tokenRepository.Create(ctx, &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeEmailVerify,
		Token:     verificationToken,
		ExpiresAt: time.Now().Add(s.tokenEmailVerifyExpiry),
	})
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	err = s.mailer.SendVerificationEmail(ctx, user.Email, verificationToken)
	if err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrPasswordlessAccount
	}

	err = s.ComparePassword(password, *user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified() {
		return nil, ErrEmailNotVerified
	}

	observability.RecordAuthEvent("sign_in", "password")
	return user, nil
}

// VerifyEmail consumes a confirmation token and marks the email verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	tokenModel, err := s.tokenRepository.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrInvalidVerification
		}
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	if !tokenModel.IsFor(model.TokenTypeEmailVerify) {
		return nil, ErrInvalidVerification
	}

	user, err := s.userRepository.ByID(ctx, tokenModel.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if !user.IsVerified() {
		now := time.Now()
		user.EmailVerifiedAt = &now
		err = s.userRepository.Update(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to verify email: %w", err)
		}

		err = s.mailer.SendWelcomeEmail(ctx, user.Email)
		if err != nil {
			slog.Warn("failed to send welcome email", "error", err, "email", user.Email)
		}
	}

	observability.RecordAuthEvent("verify_email", "password")
	slog.Info("email verified", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// AuthenticateOAuth handles OAuth authentication (Google, GitHub).
// It creates a new user if one doesn't exist, or returns the existing user.
func (s *AuthService) AuthenticateOAuth(ctx context.Context, email, provider string) (*model.User, error) {
	email = normalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to lookup user: %w", err)
		}

		now := time.Now()
		user = &model.User{
			ID:              uuid.New().String(),
			Email:           email,
			EmailVerifiedAt: &now, // OAuth provider has verified email
			CreatedAt:       now,
		}

		err = s.userRepository.Create(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		observability.RecordAuthEvent("sign_up", provider)
		slog.Info("new OAuth user created", "email", email, "user_id", user.ID, "provider", provider)
		return user, nil
	}

	// OAuth provider has verified the email
	if !user.IsVerified() {
		now := time.Now()
		user.EmailVerifiedAt = &now
		err = s.userRepository.Update(ctx, user)
		if err != nil {
			slog.Warn("failed to mark email as verified", "error", err, "user_id", user.ID)
		}
	}

	observability.RecordAuthEvent("sign_in", provider)
	slog.Info("user authenticated via OAuth", "user_id", user.ID, "email", user.Email, "provider", provider)
	return user, nil
}

// StartSession records a new session for user and returns the signed cookie value.
func (s *AuthService) StartSession(ctx context.Context, user *model.User) (string, time.Time, error) {
	now := time.Now()
	sess := &model.Session{
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.jwtExpiry),
	}

	err := s.sessionRepository.Create(ctx, sess)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.GenerateJWT(user, sess)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}

	s.broker.Publish(sess.ID, sess)
	return token, sess.ExpiresAt, nil
}

// Current resolves the cookie value to its session and user. Anything short
// of an active session yields ErrNoSession.
func (s *AuthService) Current(ctx context.Context, token string) (*model.Session, *model.User, error) {
	if token == "" {
		return nil, nil, ErrNoSession
	}

	claims, err := s.VerifyJWT(token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNoSession, err)
	}

	sessionID, _ := claims["sid"].(string)
	if sessionID == "" {
		return nil, nil, ErrNoSession
	}

	sess, err := s.sessionRepository.ByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, ErrNoSession
		}
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !sess.IsActive() {
		return nil, nil, ErrNoSession
	}

	user, err := s.userRepository.ByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrNoSession
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	return sess, user, nil
}

// Session reloads a session by ID; a missing one yields ErrNoSession.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*model.Session, error) {
	sess, err := s.sessionRepository.ByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// SignOut revokes the session and tells every view observing it.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	err := s.sessionRepository.Revoke(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.broker.Publish(sessionID, nil)
	observability.RecordAuthEvent("sign_out", "")
	return nil
}

// Subscribe registers l for changes to the given session.
func (s *AuthService) Subscribe(sessionID string, l session.Listener) func() {
	return s.broker.Subscribe(sessionID, l)
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *AuthService) GenerateJWT(user *model.User, sess *model.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid":     sess.ID,
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     sess.ExpiresAt.Unix(),
		"iat":     sess.CreatedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
