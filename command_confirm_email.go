package members

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ConfirmEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *ConfirmEmailResponse)
}

func (e ConfirmEmailMessage) Type() string { return "member.confirm_email" }

type ConfirmEmailResponse struct {
	AccountID string
}

// ConfirmEmailHandler consumes a confirmation token and sets the
// email-confirmed bit. Confirming twice is a no-op, not an error, so
// concurrent requests racing on the same link are safe.
type ConfirmEmailHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	activity ActivitySink
	logger   Logger
}

func NewConfirmEmailHandler(repo RepositoryManager, codec *TokenCodec) *ConfirmEmailHandler {
	return &ConfirmEmailHandler{
		repo:     repo,
		codec:    codec,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ConfirmEmailHandler) WithActivitySink(sink ActivitySink) *ConfirmEmailHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ConfirmEmailHandler) WithLogger(logger Logger) *ConfirmEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmEmailHandler) Execute(ctx context.Context, event ConfirmEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailHandler) execute(ctx context.Context, event ConfirmEmailMessage) error {
	claims, err := h.codec.Verify(event.Token, PurposeConfirm)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Accounts().MarkStageTx(ctx, tx, claims.AccountID, StageEmailConfirmed)
	})

	if err != nil {
		// a vanished account and a stale link look the same to the holder
		if repository.IsRecordNotFound(err) {
			return ErrInvalidOrExpiredToken
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email confirmation transaction failed")
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventEmailConfirmed,
		Actor:     ActorRef{ID: claims.AccountID.String(), Type: "member"},
		AccountID: claims.AccountID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&ConfirmEmailResponse{AccountID: claims.AccountID.String()})
	}

	return nil
}
