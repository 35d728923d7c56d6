package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jordan-wright/email"
)

// Transport delivers one message. It does not retry.
type Transport interface {
	Send(ctx context.Context, subject, body, to string) error
}

type Error struct {
	Subject string
	To      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("send %q to %s: %v", e.Subject, e.To, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	ModeImplicitTLS = "ssl"
	ModeStartTLS    = "starttls"
	ModeNone        = "none"
)

type SmtpConfig struct {
	Server       string
	Port         int
	Mode         string
	EmailAddress string
	Password     string
	From         string
}

type SMTP struct {
	config SmtpConfig
}

func NewSMTP(config SmtpConfig) *SMTP {
	if config.From == "" {
		config.From = config.EmailAddress
	}
	return &SMTP{config: config}
}

func (s *SMTP) addr() string {
	return s.config.Server + ":" + strconv.Itoa(s.config.Port)
}

func (s *SMTP) auth() smtp.Auth {
	if s.config.EmailAddress == "" {
		return nil
	}
	return smtp.PlainAuth("", s.config.EmailAddress, s.config.Password, s.config.Server)
}

// Send delivers the message on a separate goroutine so ctx can abandon a
// stuck SMTP exchange. The exchange itself is not interrupted.
func (s *SMTP) Send(ctx context.Context, subject, body, to string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Subject: subject, To: to, Err: err}
	}

	mail := email.NewEmail()
	mail.From = s.config.From
	mail.To = []string{to}
	mail.Subject = subject
	mail.Text = []byte(body)

	done := make(chan error, 1)
	go func() { done <- s.deliver(mail) }()

	select {
	case err := <-done:
		if err != nil {
			return &Error{Subject: subject, To: to, Err: err}
		}
		return nil
	case <-ctx.Done():
		return &Error{Subject: subject, To: to, Err: ctx.Err()}
	}
}

func (s *SMTP) deliver(mail *email.Email) error {
	tlsConfig := &tls.Config{ServerName: s.config.Server}

	switch s.config.Mode {
	case ModeStartTLS:
		return mail.SendWithStartTLS(s.addr(), s.auth(), tlsConfig)
	case ModeNone:
		err := mail.Send(s.addr(), s.auth())
		if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
			err = mail.Send(s.addr(), nil)
		}
		return err
	default:
		return mail.SendWithTLS(s.addr(), s.auth(), tlsConfig)
	}
}
