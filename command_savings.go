package members

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SetSavingsWindowMessage struct {
	AccountID    uuid.UUID  `json:"account_id"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	GoalAmount   int64      `json:"goal_amount"`
	BankAcctOpen *time.Time `json:"bank_acct_open"`
	Actor        ActorRef
	OnResponse   func(resp *SetSavingsWindowResponse)
}

func (e SetSavingsWindowMessage) Type() string { return "member.savings_window" }

func (e SetSavingsWindowMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.GoalAmount, validation.Min(0)),
	)
}

type SetSavingsWindowResponse struct {
	Account *Account
}

// SetSavingsWindowHandler stores the savings window and goal. Whenever both
// dates are present the start must precede the end; a window supplied one
// date at a time is validated as soon as the pair is complete.
type SetSavingsWindowHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewSetSavingsWindowHandler(repo RepositoryManager) *SetSavingsWindowHandler {
	return &SetSavingsWindowHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *SetSavingsWindowHandler) WithActivitySink(sink ActivitySink) *SetSavingsWindowHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *SetSavingsWindowHandler) WithLogger(logger Logger) *SetSavingsWindowHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SetSavingsWindowHandler) Execute(ctx context.Context, event SetSavingsWindowMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled while setting savings window",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SetSavingsWindowHandler) execute(ctx context.Context, event SetSavingsWindowMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid savings window payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.repo.Accounts().GetByID(ctx, event.AccountID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	start := account.SavingsStartDate
	if event.StartDate != nil {
		start = event.StartDate
	}
	end := account.SavingsEndDate
	if event.EndDate != nil {
		end = event.EndDate
	}

	if start != nil && end != nil && !start.Before(*end) {
		return ErrInvalidDateRange
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &Account{
			ID:               event.AccountID,
			SavingsStartDate: start,
			SavingsEndDate:   end,
			GoalAmount:       event.GoalAmount,
			BankAcctOpen:     event.BankAcctOpen,
		}

		var err error
		account, err = h.repo.Accounts().UpdateTx(ctx, tx, record,
			repository.UpdateByID(event.AccountID.String()),
		)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "savings window transaction failed")
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventSavingsWindowSet,
		Actor:     event.Actor,
		AccountID: event.AccountID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&SetSavingsWindowResponse{Account: account})
	}

	return nil
}

type RecordBalanceMessage struct {
	AccountID  uuid.UUID  `json:"account_id"`
	Balance    int64      `json:"balance"`
	Date       *time.Time `json:"date"`
	Actor      ActorRef
	OnResponse func(resp *RecordBalanceResponse)
}

func (e RecordBalanceMessage) Type() string { return "member.record_balance" }

func (e RecordBalanceMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Balance, validation.Min(0)),
	)
}

type RecordBalanceResponse struct {
	Account *Account
	History *SavingsHistory
}

// RecordBalanceHandler updates the current balance, appends a history
// snapshot, and sets the balance-tracked bit on first record.
type RecordBalanceHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewRecordBalanceHandler(repo RepositoryManager) *RecordBalanceHandler {
	return &RecordBalanceHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *RecordBalanceHandler) WithActivitySink(sink ActivitySink) *RecordBalanceHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RecordBalanceHandler) WithLogger(logger Logger) *RecordBalanceHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RecordBalanceHandler) Execute(ctx context.Context, event RecordBalanceMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled while recording balance",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RecordBalanceHandler) execute(ctx context.Context, event RecordBalanceMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid balance payload")
	}

	date := time.Now()
	if event.Date != nil {
		date = *event.Date
	}

	var account *Account
	history := &SavingsHistory{
		AccountID: event.AccountID,
		Date:      date,
		Balance:   event.Balance,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &Account{
			ID:          event.AccountID,
			BankBalance: event.Balance,
		}

		var err error
		account, err = h.repo.Accounts().UpdateTx(ctx, tx, record,
			repository.UpdateByID(event.AccountID.String()),
		)
		if err != nil {
			return err
		}

		if history, err = h.repo.SavingsHistories().CreateTx(ctx, tx, history); err != nil {
			return err
		}

		return h.repo.Accounts().MarkStageTx(ctx, tx, event.AccountID, StageBalanceTracked)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "balance transaction failed")
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventBalanceRecorded,
		Actor:     event.Actor,
		AccountID: event.AccountID.String(),
		Metadata:  map[string]any{"balance": event.Balance},
	})

	if event.OnResponse != nil {
		event.OnResponse(&RecordBalanceResponse{Account: account, History: history})
	}

	return nil
}
