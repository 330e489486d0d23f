package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// Mailer sends the account emails of the auth flow.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendWelcomeEmail(ctx context.Context, email string) error
}

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendVerificationEmail(ctx context.Context, email, token string) error {
	verifyURL := fmt.Sprintf("%s/auth/verify-email/%s", s.appURL, token)
	subject, body := verificationEmailTemplate(verifyURL, s.appName)
	return s.send(ctx, "email_verify", email, subject, body, verifyURL)
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email string) error {
	logURL := fmt.Sprintf("%s/log-activity", s.appURL)
	subject, body := welcomeEmailTemplate(logURL, s.appName)
	return s.send(ctx, "welcome", email, subject, body, logURL)
}

// send delivers through Resend, or only logs in development.
func (s *EmailService) send(ctx context.Context, kind, to, subject, body, url string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject, "url", url)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
