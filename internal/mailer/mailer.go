package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer delivers account e-mails. Delivery is fire-and-forget from the
// caller's point of view; failures are logged, never surfaced to the client.
type Mailer interface {
	SendConfirmationEmail(to, firstName, confirmationURL string) error
}

// SMTPMailer implements Mailer over plain SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// SendConfirmationEmail sends the sign-up confirmation link.
func (m *SMTPMailer) SendConfirmationEmail(to, firstName, confirmationURL string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Thanks for registering with us. Please confirm your email address "+
			"by clicking the link below:\n\n%s\n\n"+
			"If you did not sign up for an account, you can safely ignore this email.",
		firstName, confirmationURL,
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your confirmation token")
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}
