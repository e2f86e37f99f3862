package notification

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"storefront/config"
	"storefront/internal/domain/service"

	"github.com/pkg/errors"
)

type smtpMailer struct {
	addr   string
	host   string
	from   string
	auth   smtp.Auth
	logger *slog.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer builds a Mailer for the configured relay. Without a host, mail is logged and dropped.
func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) service.Mailer {
	m := cfg.Mail
	mailer := &smtpMailer{
		addr:   net.JoinHostPort(m.Host, strconv.Itoa(m.Port)),
		host:   m.Host,
		from:   m.From,
		logger: logger,
		send:   smtp.SendMail,
	}
	if m.Username != "" {
		mailer.auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	return mailer
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.host == "" {
		m.logger.WarnContext(ctx, "Mail relay not configured, dropping email", slog.String("subject", subject))

		return nil
	}

	msg := buildMessage(m.from, to, subject, body, time.Now())

	// net/smtp has no context support; run the exchange so cancellation still returns promptly
	done := make(chan error, 1)
	go func() {
		done <- m.send(m.addr, m.auth, m.from, []string{to}, msg)
	}()

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "send mail")
	case err := <-done:
		return errors.Wrap(err, "send mail")
	}
}

func buildMessage(from, to, subject, body string, now time.Time) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)

	return buf.Bytes()
}
