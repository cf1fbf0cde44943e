// Package mailer delivers one-time codes by email.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/borkya1/smart-gallery/internal/providers"
	"github.com/borkya1/smart-gallery/internal/structures"
)

const subject = "Your SmartGallery verification code"

type MailerInterface interface {
	Send(ctx context.Context, to, code string, expiry time.Duration) error
}

// NewMailer returns an SMTP mailer, or a mailer that only logs the code when
// no SMTP host is configured.
func NewMailer(conf *structures.Config, logger providers.Logger) MailerInterface {
	smtpConf := conf.Otp.Smtp
	if smtpConf.Host == "" {
		logger.Warnf(providers.TypeApp, "SMTP not configured, OTP codes will be written to the log")
		return &LogMailer{logger: logger}
	}

	m := &SmtpMailer{
		addr: net.JoinHostPort(smtpConf.Host, strconv.Itoa(smtpConf.Port)),
		from: smtpConf.From,
	}
	if smtpConf.Username != "" {
		m.auth = smtp.PlainAuth("", smtpConf.Username, smtpConf.Password, smtpConf.Host)
	}
	return m
}

type SmtpMailer struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (m *SmtpMailer) Send(ctx context.Context, to, code string, expiry time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(m.addr, m.auth, m.from, []string{to}, Message(m.from, to, code, expiry)); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	return nil
}

// Message renders the RFC 5322 message carrying code.
func Message(from, to, code string, expiry time.Duration) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Your verification code is %s.\r\n", code)
	fmt.Fprintf(&b, "It expires in %d minutes.\r\n", int(expiry.Minutes()))
	return []byte(b.String())
}

type LogMailer struct {
	logger providers.Logger
}

func (m *LogMailer) Send(_ context.Context, to, code string, _ time.Duration) error {
	m.logger.Infof(providers.TypeApp, "OTP for %s: %s", to, code)
	return nil
}
