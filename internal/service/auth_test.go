package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/ecoscan/internal/db"
	"github.com/templui/ecoscan/internal/model"
	"github.com/templui/ecoscan/internal/repository"
	"github.com/templui/ecoscan/internal/session"
	"github.com/templui/ecoscan/internal/validation"
)

type fakeMailer struct {
	mu            sync.Mutex
	verifications map[string]string
	welcomed      []string
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verifications == nil {
		m.verifications = map[string]string{}
	}
	m.verifications[email] = token
	return nil
}

func (m *fakeMailer) SendWelcomeEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomed = append(m.welcomed, email)
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeMailer, *session.Broker) {
	t.Helper()

	conn, err := db.Open("sqlite", filepath.Join(t.TempDir(), "ecoscan.db")+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(conn) })

	mailer := &fakeMailer{}
	broker := session.NewBroker()
	svc := NewAuthService(
		repository.NewUserRepository(conn),
		repository.NewTokenRepository(conn),
		repository.NewSessionRepository(conn),
		mailer,
		broker,
		"test-secret",
		false,
		time.Hour,
		24*time.Hour,
	)
	return svc, mailer, broker
}

const testPassword = "correct horse battery"

func signUpVerified(t *testing.T, svc *AuthService, mailer *fakeMailer, email string) *model.User {
	t.Helper()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, email, testPassword)
	require.NoError(t, err)
	user, err := svc.VerifyEmail(ctx, mailer.verifications[email])
	require.NoError(t, err)
	return user
}

func TestAuthService_SignUpRequiresVerification(t *testing.T) {
	ctx := context.Background()
	svc, mailer, _ := newTestAuthService(t)

	user, err := svc.SignUp(ctx, "  Ada@Example.com ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	require.NotEmpty(t, mailer.verifications["ada@example.com"])

	_, err = svc.SignIn(ctx, "ada@example.com", testPassword)
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	verified, err := svc.VerifyEmail(ctx, mailer.verifications["ada@example.com"])
	require.NoError(t, err)
	assert.True(t, verified.IsVerified())
	assert.Equal(t, []string{"ada@example.com"}, mailer.welcomed)

	_, err = svc.VerifyEmail(ctx, mailer.verifications["ada@example.com"])
	assert.ErrorIs(t, err, ErrInvalidVerification, "links are single use")

	signedIn, err := svc.SignIn(ctx, "ADA@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
}

func TestAuthService_SignUpErrors(t *testing.T) {
	ctx := context.Background()
	svc, mailer, _ := newTestAuthService(t)

	_, err := svc.SignUp(ctx, "not-an-email", testPassword)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.SignUp(ctx, "a@example.com", "short")
	assert.ErrorIs(t, err, validation.ErrPasswordTooShort)

	signUpVerified(t, svc, mailer, "a@example.com")
	_, err = svc.SignUp(ctx, "a@example.com", testPassword)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthService_SignUpAgainReissuesConfirmation(t *testing.T) {
	ctx := context.Background()
	svc, mailer, _ := newTestAuthService(t)

	svc.tokenEmailVerifyExpiry = -time.Minute
	first, err := svc.SignUp(ctx, "ada@example.com", testPassword)
	require.NoError(t, err)
	expired := mailer.verifications["ada@example.com"]

	_, err = svc.VerifyEmail(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidVerification)

	svc.tokenEmailVerifyExpiry = 24 * time.Hour
	second, err := svc.SignUp(ctx, "ada@example.com", "another long passphrase")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	fresh := mailer.verifications["ada@example.com"]
	require.NotEqual(t, expired, fresh)
	_, err = svc.VerifyEmail(ctx, fresh)
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "ada@example.com", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "the newer password wins")
	signedIn, err := svc.SignIn(ctx, "ada@example.com", "another long passphrase")
	require.NoError(t, err)
	assert.Equal(t, first.ID, signedIn.ID)
}

func TestAuthService_SignInWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, mailer, _ := newTestAuthService(t)
	signUpVerified(t, svc, mailer, "a@example.com")

	_, err := svc.SignIn(ctx, "a@example.com", "wrong horse battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, mailer, _ := newTestAuthService(t)
	user := signUpVerified(t, svc, mailer, "a@example.com")

	token, expires, err := svc.StartSession(ctx, user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	sess, current, err := svc.Current(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)
	assert.True(t, sess.IsActive())

	var notified []*model.Session
	unsubscribe := svc.Subscribe(sess.ID, func(s *model.Session) { notified = append(notified, s) })
	defer unsubscribe()

	require.NoError(t, svc.SignOut(ctx, sess.ID))
	require.Len(t, notified, 1)
	assert.Nil(t, notified[0])

	_, _, err = svc.Current(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAuthService_CurrentRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAuthService(t)

	_, _, err := svc.Current(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)

	_, _, err = svc.Current(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, ErrNoSession)

	other := &AuthService{jwtSecret: "other-secret"}
	forged, err := other.GenerateJWT(&model.User{ID: "u"}, &model.Session{ID: "s", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	_, _, err = svc.Current(ctx, forged)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAuthService_OAuthCreatesVerifiedUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAuthService(t)

	user, err := svc.AuthenticateOAuth(ctx, "Dev@Example.com", "github")
	require.NoError(t, err)
	assert.True(t, user.IsVerified())
	assert.False(t, user.HasPassword())

	again, err := svc.AuthenticateOAuth(ctx, "dev@example.com", "google")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	_, err = svc.SignIn(ctx, "dev@example.com", testPassword)
	assert.ErrorIs(t, err, ErrPasswordlessAccount)
}
