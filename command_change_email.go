package members

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RequestEmailChangeMessage struct {
	AccountID       uuid.UUID `json:"account_id"`
	CurrentPassword string    `json:"current_password"`
	NewEmail        string    `json:"new_email"`
	OnResponse      func(resp *RequestEmailChangeResponse)
}

func (e RequestEmailChangeMessage) Type() string { return "member.change_email" }

func (e RequestEmailChangeMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.CurrentPassword, validation.Required),
		validation.Field(&e.NewEmail, validation.Required, validation.Length(6, 100), is.Email),
	)
}

type RequestEmailChangeResponse struct {
	Token string
}

// RequestEmailChangeHandler re-authenticates the member and mails a change
// token to the candidate address. The stored email does not change until
// ApplyEmailChange consumes the token, proving the member controls the new
// inbox.
type RequestEmailChangeHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	mailer   Mailer
	activity ActivitySink
	logger   Logger
	ttl      time.Duration
}

func NewRequestEmailChangeHandler(repo RepositoryManager, codec *TokenCodec) *RequestEmailChangeHandler {
	return &RequestEmailChangeHandler{
		repo:     repo,
		codec:    codec,
		mailer:   noopMailer{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		ttl:      ChangeEmailTokenTTL,
	}
}

// WithTokenTTL overrides the change token lifetime.
func (h *RequestEmailChangeHandler) WithTokenTTL(ttl time.Duration) *RequestEmailChangeHandler {
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

func (h *RequestEmailChangeHandler) WithMailer(m Mailer) *RequestEmailChangeHandler {
	h.mailer = normalizeMailer(m)
	return h
}

func (h *RequestEmailChangeHandler) WithActivitySink(sink ActivitySink) *RequestEmailChangeHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RequestEmailChangeHandler) WithLogger(logger Logger) *RequestEmailChangeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestEmailChangeHandler) Execute(ctx context.Context, event RequestEmailChangeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email change request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestEmailChangeHandler) execute(ctx context.Context, event RequestEmailChangeMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid email change payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.repo.Accounts().GetByID(ctx, event.AccountID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if !account.VerifyPassword(event.CurrentPassword) {
		return ErrAuthenticationFailed
	}

	newEmail := normalizeEmail(event.NewEmail)

	// early taken check; the apply step re-checks inside the transaction
	if _, err := h.repo.Accounts().GetByEmail(ctx, newEmail); err == nil {
		return ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	}

	token, err := h.codec.Issue(PurposeChangeEmail, account.ID, h.ttl, map[string]string{
		"new_email": newEmail,
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue email change token")
	}

	dispatchEmail(ctx, h.logger, h.mailer, newEmail, TemplateChangeEmail, map[string]any{
		"first_name": account.FirstName,
		"token":      token,
	})

	if event.OnResponse != nil {
		event.OnResponse(&RequestEmailChangeResponse{Token: token})
	}

	return nil
}

type ApplyEmailChangeMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *ApplyEmailChangeResponse)
}

func (e ApplyEmailChangeMessage) Type() string { return "member.change_email_finalize" }

type ApplyEmailChangeResponse struct {
	AccountID string
	NewEmail  string
}

// ApplyEmailChangeHandler consumes a change token and swaps the stored email
// for the address embedded in the token claims.
type ApplyEmailChangeHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	activity ActivitySink
	logger   Logger
}

func NewApplyEmailChangeHandler(repo RepositoryManager, codec *TokenCodec) *ApplyEmailChangeHandler {
	return &ApplyEmailChangeHandler{
		repo:     repo,
		codec:    codec,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ApplyEmailChangeHandler) WithActivitySink(sink ActivitySink) *ApplyEmailChangeHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ApplyEmailChangeHandler) WithLogger(logger Logger) *ApplyEmailChangeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ApplyEmailChangeHandler) Execute(ctx context.Context, event ApplyEmailChangeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email change finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ApplyEmailChangeHandler) execute(ctx context.Context, event ApplyEmailChangeMessage) error {
	claims, err := h.codec.Verify(event.Token, PurposeChangeEmail)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}

	newEmail := claims.Extra["new_email"]
	if newEmail == "" {
		return ErrInvalidOrExpiredToken
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// the address may have been claimed since the token was issued
		if _, err := h.repo.Accounts().GetByEmailTx(ctx, tx, newEmail); err == nil {
			return ErrEmailTaken
		} else if !repository.IsRecordNotFound(err) {
			return err
		}

		return h.repo.Accounts().ReplaceEmailTx(ctx, tx, claims.AccountID, newEmail)
	})

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrInvalidOrExpiredToken
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email change transaction failed")
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventEmailChanged,
		Actor:     ActorRef{ID: claims.AccountID.String(), Type: "member"},
		AccountID: claims.AccountID.String(),
		Metadata:  map[string]any{"new_email": newEmail},
	})

	if event.OnResponse != nil {
		event.OnResponse(&ApplyEmailChangeResponse{
			AccountID: claims.AccountID.String(),
			NewEmail:  newEmail,
		})
	}

	return nil
}
