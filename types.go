package members

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Mailer delivers templated email. The core never awaits delivery
// confirmation; a Send failure is logged and swallowed by the caller.
type Mailer interface {
	Send(ctx context.Context, recipient, template string, data map[string]any) error
}

// SMSSender delivers a text message. Provider errors are non-fatal to the
// transition that triggered the send: the code was already issued and stored.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// UploadSigner returns a short-lived upload URL for a certificate file.
type UploadSigner interface {
	SignUpload(ctx context.Context, filename, contentType string) (string, error)
}

// Config supplies lifecycle defaults
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetConfirmTokenTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetChangeEmailTokenTTL() time.Duration
	GetTotalModules() int
	GetPhoneRegion() string
}

// SimpleConfig is a plain-struct Config implementation
type SimpleConfig struct {
	SigningKey          string
	Issuer              string
	ConfirmTokenTTL     time.Duration
	ResetTokenTTL       time.Duration
	ChangeEmailTokenTTL time.Duration
	TotalModules        int
	PhoneRegion         string
}

func (c SimpleConfig) GetSigningKey() string { return c.SigningKey }
func (c SimpleConfig) GetIssuer() string     { return c.Issuer }

func (c SimpleConfig) GetConfirmTokenTTL() time.Duration {
	if c.ConfirmTokenTTL == 0 {
		return ConfirmTokenTTL
	}
	return c.ConfirmTokenTTL
}

func (c SimpleConfig) GetResetTokenTTL() time.Duration {
	if c.ResetTokenTTL == 0 {
		return ResetTokenTTL
	}
	return c.ResetTokenTTL
}

func (c SimpleConfig) GetChangeEmailTokenTTL() time.Duration {
	if c.ChangeEmailTokenTTL == 0 {
		return ChangeEmailTokenTTL
	}
	return c.ChangeEmailTokenTTL
}

func (c SimpleConfig) GetTotalModules() int {
	if c.TotalModules == 0 {
		return DefaultTotalModules
	}
	return c.TotalModules
}

func (c SimpleConfig) GetPhoneRegion() string {
	if c.PhoneRegion == "" {
		return "US"
	}
	return c.PhoneRegion
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string, map[string]any) error { return nil }

type noopSMSSender struct{}

func (noopSMSSender) Send(context.Context, string, string) error { return nil }

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return noopMailer{}
	}
	return m
}

func normalizeSMSSender(s SMSSender) SMSSender {
	if s == nil {
		return noopSMSSender{}
	}
	return s
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] MEMBERS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] MEMBERS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] MEMBERS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] MEMBERS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
