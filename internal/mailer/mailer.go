package mailer

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer delivers confirmation codes out-of-band. Send failures propagate to
// the caller; nothing is retried or swallowed.
type Mailer interface {
	SendConfirmationCode(email string, username string, code string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func (m *SMTPMailer) SendConfirmationCode(email string, username string, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Your confirmation code")
	msg.SetBody("text/plain", fmt.Sprintf("Hi %s,\n\nYour confirmation code: %s\n", username, code))

	return m.dialer.DialAndSend(msg)
}

// LogMailer writes codes to the application log instead of sending mail.
// Used when SMTP is not configured.
type LogMailer struct{}

func (m *LogMailer) SendConfirmationCode(email string, username string, code string) error {
	log.Printf("confirmation code for %s <%s>: %s", username, email, code)
	return nil
}

// New returns an SMTP mailer when SMTP_HOST is set, otherwise a log mailer.
func New() Mailer {
	host := os.Getenv("SMTP_HOST")

	if host == "" {
		return &LogMailer{}
	}

	port := 587
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			port = n
		}
	}

	from := os.Getenv("FROM_EMAIL")
	if from == "" {
		from = "noreply@reviewdb.local"
	}

	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD")),
		from:   from,
	}
}
