package services

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
	portssvc "github.com/SscSPs/session_auth_service/internal/core/ports/services"
	"github.com/SscSPs/session_auth_service/internal/middleware"
	"github.com/SscSPs/session_auth_service/internal/platform/config"
)

// logNotifier writes links to the request log instead of sending mail.
// It is meant for local development only.
type logNotifier struct{}

// NewLogNotifier returns a Notifier that only logs.
func NewLogNotifier() portssvc.Notifier {
	return logNotifier{}
}

func (logNotifier) SendEmailVerification(ctx context.Context, account *domain.Account, link string) error {
	middleware.GetLoggerFromCtx(ctx).InfoContext(ctx, "Email verification link",
		slog.String("account_id", account.AccountID),
		slog.String("link", link))
	return nil
}

func (logNotifier) SendPasswordReset(ctx context.Context, account *domain.Account, link string, expiresAt time.Time) error {
	middleware.GetLoggerFromCtx(ctx).InfoContext(ctx, "Password reset link",
		slog.String("account_id", account.AccountID),
		slog.String("link", link),
		slog.Time("expires_at", expiresAt))
	return nil
}

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpNotifier struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail SendMailFunc
}

// NewSMTPNotifier returns a Notifier that delivers plain-text mail through cfg.
// A nil sendMail uses smtp.SendMail.
func NewSMTPNotifier(cfg config.SMTPConfig, sendMail SendMailFunc) portssvc.Notifier {
	if sendMail == nil {
		sendMail = smtp.SendMail
	}
	n := &smtpNotifier{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:     cfg.From,
		sendMail: sendMail,
	}
	if cfg.Username != "" {
		n.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return n
}

func (n *smtpNotifier) SendEmailVerification(ctx context.Context, account *domain.Account, link string) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nConfirm your email address by opening the link below:\r\n\r\n%s\r\n",
		account.DisplayName, link)
	return n.send(ctx, account.Email, "Verify your email address", body)
}

func (n *smtpNotifier) SendPasswordReset(ctx context.Context, account *domain.Account, link string, expiresAt time.Time) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nReset your password by opening the link below. It expires at %s.\r\n\r\n%s\r\n\r\nIf you did not ask for this, ignore this message.\r\n",
		account.DisplayName, expiresAt.UTC().Format(time.RFC1123), link)
	return n.send(ctx, account.Email, "Reset your password", body)
}

func (n *smtpNotifier) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var msg strings.Builder
	msg.WriteString("From: " + n.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	msg.WriteString(body)

	if err := n.sendMail(n.addr, n.auth, n.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", n.addr, err)
	}
	return nil
}
