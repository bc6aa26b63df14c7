package members

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ChangePasswordMessage struct {
	AccountID       uuid.UUID `json:"account_id"`
	CurrentPassword string    `json:"current_password"`
	NewPassword     string    `json:"new_password"`
}

func (e ChangePasswordMessage) Type() string { return "member.change_password" }

func (e ChangePasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.CurrentPassword, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

// ChangePasswordHandler rotates a password for an authenticated member. The
// current password is re-checked even for established sessions.
type ChangePasswordHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewChangePasswordHandler(repo RepositoryManager) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ChangePasswordHandler) WithActivitySink(sink ActivitySink) *ChangePasswordHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ChangePasswordHandler) WithLogger(logger Logger) *ChangePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password change payload")
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

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.NewPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		return h.repo.Accounts().SetPasswordTx(ctx, tx, account.ID, hash)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password change transaction failed")
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventPasswordChanged,
		Actor:     ActorRef{ID: account.ID.String(), Type: "member"},
		AccountID: account.ID.String(),
	})

	return nil
}
