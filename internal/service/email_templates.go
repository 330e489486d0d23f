package service

import "fmt"

func verificationEmailTemplate(verifyURL, appName string) (string, string) {
	subject := fmt.Sprintf("Confirm your email for %s", appName)
	body := fmt.Sprintf(`Thanks for signing up! Please confirm your email address with this link:
%s

This link expires in 24 hours and can only be used once.

If you didn't create an account, you can safely ignore this email.

Best,
The %s Team`, verifyURL, appName)

	return subject, body
}

func welcomeEmailTemplate(logURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi,

Your email is verified and your account is active.

Log your first activity: %s

Every entry gets an estimated CO2 value, and your dashboard adds them up.

Best,
The %s Team`, logURL, appName)

	return subject, body
}
