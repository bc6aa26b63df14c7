package members

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ResetPasswordMessage struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (e ResetPasswordMessage) Type() string { return "member.password_reset_finalize" }

func (e ResetPasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
	)
}

// ResetPasswordHandler consumes a reset token and stores the new password.
// Invalid and expired tokens are indistinguishable to the caller.
type ResetPasswordHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	activity ActivitySink
	logger   Logger
}

func NewResetPasswordHandler(repo RepositoryManager, codec *TokenCodec) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:     repo,
		codec:    codec,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ResetPasswordHandler) WithActivitySink(sink ActivitySink) *ResetPasswordHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ResetPasswordHandler) WithLogger(logger Logger) *ResetPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reset payload")
	}

	claims, err := h.codec.Verify(event.Token, PurposeReset)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		passwordHash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		return h.repo.Accounts().SetPasswordTx(ctx, tx, claims.AccountID, passwordHash)
	})

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrInvalidOrExpiredToken
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventPasswordReset,
		Actor:     ActorRef{ID: claims.AccountID.String(), Type: "member"},
		AccountID: claims.AccountID.String(),
	})

	return nil
}
