package services_test

import (
	"context"
	"net/smtp"
	"testing"
	"time"

	"github.com/SscSPs/session_auth_service/internal/core/domain"
	"github.com/SscSPs/session_auth_service/internal/core/services"
	"github.com/SscSPs/session_auth_service/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func TestSMTPNotifier_SendsLinks(t *testing.T) {
	var sent []sentMail
	n := services.NewSMTPNotifier(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "mailer",
		Password: "secret",
		From:     "no-reply@example.com",
	}, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
		return nil
	})
	account := &domain.Account{AccountID: "acc-1", Email: "alice@example.com", DisplayName: "Alice"}
	ctx := context.Background()

	require.NoError(t, n.SendEmailVerification(ctx, account, "https://app.example.com/verify-email?token=abc"))
	require.NoError(t, n.SendPasswordReset(ctx, account, "https://app.example.com/reset-password?token=def", time.Now().Add(time.Hour)))

	require.Len(t, sent, 2)
	assert.Equal(t, "smtp.example.com:587", sent[0].addr)
	assert.NotNil(t, sent[0].auth)
	assert.Equal(t, "no-reply@example.com", sent[0].from)
	assert.Equal(t, []string{"alice@example.com"}, sent[0].to)
	assert.Contains(t, sent[0].msg, "Subject: Verify your email address")
	assert.Contains(t, sent[0].msg, "verify-email?token=abc")
	assert.Contains(t, sent[1].msg, "Subject: Reset your password")
	assert.Contains(t, sent[1].msg, "reset-password?token=def")
}

func TestSMTPNotifier_WrapsSendError(t *testing.T) {
	n := services.NewSMTPNotifier(config.SMTPConfig{Host: "localhost", Port: 25, From: "a@b.c"},
		func(string, smtp.Auth, string, []string, []byte) error { return assert.AnError })

	err := n.SendEmailVerification(context.Background(), &domain.Account{Email: "x@example.com"}, "link")

	assert.ErrorIs(t, err, assert.AnError)
}

func TestSMTPNotifier_HonoursCancelledContext(t *testing.T) {
	called := false
	n := services.NewSMTPNotifier(config.SMTPConfig{Host: "localhost", Port: 25},
		func(string, smtp.Auth, string, []string, []byte) error { called = true; return nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.SendEmailVerification(ctx, &domain.Account{Email: "x@example.com"}, "link")

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestLogNotifier_NeverFails(t *testing.T) {
	n := services.NewLogNotifier()
	account := &domain.Account{AccountID: "acc-1"}

	assert.NoError(t, n.SendEmailVerification(context.Background(), account, "link"))
	assert.NoError(t, n.SendPasswordReset(context.Background(), account, "link", time.Now()))
}
