package members

import (
	"context"
	"crypto/subtle"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// stalePhoneCodePattern is how long a verification code stays redeemable.
const stalePhoneCodePattern = "24h"

type ConfirmPhoneMessage struct {
	AccountID  uuid.UUID `json:"account_id"`
	Code       string    `json:"code"`
	OnResponse func(resp *ConfirmPhoneResponse)
}

func (e ConfirmPhoneMessage) Type() string { return "member.confirm_phone" }

func (e ConfirmPhoneMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Code, validation.Required, validation.Length(5, 5)),
	)
}

type ConfirmPhoneResponse struct {
	PhoneNumber string
}

// ConfirmPhoneHandler checks a submitted code against the pending
// verification slot. The slot is consumed on both the match and mismatch
// paths, so each code gets exactly one attempt.
type ConfirmPhoneHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewConfirmPhoneHandler(repo RepositoryManager) *ConfirmPhoneHandler {
	return &ConfirmPhoneHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ConfirmPhoneHandler) WithActivitySink(sink ActivitySink) *ConfirmPhoneHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ConfirmPhoneHandler) WithLogger(logger Logger) *ConfirmPhoneHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmPhoneHandler) Execute(ctx context.Context, event ConfirmPhoneMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during phone confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmPhoneHandler) execute(ctx context.Context, event ConfirmPhoneMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone confirmation payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	pending, err := h.repo.PhoneVerifications().GetByAccount(ctx, event.AccountID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrNoPendingVerification
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve pending verification")
	}

	if pending.CreatedAt != nil {
		stale, err := IsOutsideThresholdPeriod(*pending.CreatedAt, stalePhoneCodePattern)
		if err == nil && stale {
			if err := h.repo.PhoneVerifications().DeleteByAccount(ctx, event.AccountID); err != nil {
				h.logger.Warn("failed to discard stale verification: %v", err)
			}
			return ErrNoPendingVerification
		}
	}

	// outcome is captured so the delete commits on the mismatch path too
	var outcome error
	if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(event.Code)) != 1 {
		outcome = ErrCodeMismatch
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.PhoneVerifications().DeleteByAccountTx(ctx, tx, event.AccountID); err != nil {
			return err
		}

		if outcome != nil {
			return nil
		}

		record := &Account{
			ID:          event.AccountID,
			MobilePhone: pending.PhoneNumber,
		}

		if _, err := h.repo.Accounts().UpdateTx(ctx, tx, record,
			repository.UpdateByID(event.AccountID.String()),
		); err != nil {
			return err
		}

		return h.repo.Accounts().MarkStageTx(ctx, tx, event.AccountID, StagePhoneConfirmed)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "phone confirmation transaction failed")
	}

	if outcome != nil {
		return outcome
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventPhoneConfirmed,
		Actor:     ActorRef{ID: event.AccountID.String(), Type: "member"},
		AccountID: event.AccountID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&ConfirmPhoneResponse{PhoneNumber: pending.PhoneNumber})
	}

	return nil
}
