package members

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type RequestPasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *RequestPasswordResetResponse)
}

func (e RequestPasswordResetMessage) Type() string { return "member.password_reset" }

func (e RequestPasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// RequestPasswordResetResponse is identical whether or not the email exists;
// callers surface the same acknowledgement to avoid account enumeration.
type RequestPasswordResetResponse struct {
	Acknowledged bool
}

// RequestPasswordResetHandler issues a reset token and dispatches it when the
// email is known. Unknown emails are acknowledged identically and silently.
type RequestPasswordResetHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	mailer   Mailer
	activity ActivitySink
	logger   Logger
	ttl      time.Duration
}

func NewRequestPasswordResetHandler(repo RepositoryManager, codec *TokenCodec) *RequestPasswordResetHandler {
	return &RequestPasswordResetHandler{
		repo:     repo,
		codec:    codec,
		mailer:   noopMailer{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		ttl:      ResetTokenTTL,
	}
}

// WithTokenTTL overrides the reset token lifetime.
func (h *RequestPasswordResetHandler) WithTokenTTL(ttl time.Duration) *RequestPasswordResetHandler {
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

func (h *RequestPasswordResetHandler) WithMailer(m Mailer) *RequestPasswordResetHandler {
	h.mailer = normalizeMailer(m)
	return h
}

func (h *RequestPasswordResetHandler) WithActivitySink(sink ActivitySink) *RequestPasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RequestPasswordResetHandler) WithLogger(logger Logger) *RequestPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestPasswordResetHandler) Execute(ctx context.Context, event RequestPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetHandler) execute(ctx context.Context, event RequestPasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.repo.Accounts().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// same outward acknowledgement as the found path
			h.logger.Debug("password reset requested for unknown email")
			if event.OnResponse != nil {
				event.OnResponse(&RequestPasswordResetResponse{Acknowledged: true})
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
	}

	token, err := h.codec.Issue(PurposeReset, account.ID, h.ttl, nil)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
	}

	dispatchEmail(ctx, h.logger, h.mailer, account.Email, TemplateResetPassword, map[string]any{
		"first_name": account.FirstName,
		"token":      token,
	})

	if event.OnResponse != nil {
		event.OnResponse(&RequestPasswordResetResponse{Acknowledged: true})
	}

	return nil
}
