package members

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ArchiveMemberMessage struct {
	AccountID uuid.UUID `json:"account_id"`
	Actor     ActorRef
}

func (e ArchiveMemberMessage) Type() string { return "member.archive" }

// ArchiveMemberHandler retires an account: the archived bit is set, the row
// is soft deleted, and earned milestone bits are preserved for reporting.
type ArchiveMemberHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewArchiveMemberHandler(repo RepositoryManager) *ArchiveMemberHandler {
	return &ArchiveMemberHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ArchiveMemberHandler) WithActivitySink(sink ActivitySink) *ArchiveMemberHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ArchiveMemberHandler) WithLogger(logger Logger) *ArchiveMemberHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ArchiveMemberHandler) Execute(ctx context.Context, event ArchiveMemberMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during member archival",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ArchiveMemberHandler) execute(ctx context.Context, event ArchiveMemberMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Accounts().ArchiveTx(ctx, tx, event.AccountID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "archive transaction failed")
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventArchived,
		Actor:     event.Actor,
		AccountID: event.AccountID.String(),
	})

	return nil
}
