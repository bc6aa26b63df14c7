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

type InviteMemberMessage struct {
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Email        string      `json:"email"`
	Role         AccountRole `json:"role"`
	BankAcctOpen *time.Time  `json:"bank_acct_open"`
	Actor        ActorRef
	OnResponse   func(resp *InviteMemberResponse)
}

func (e InviteMemberMessage) Type() string { return "member.invite" }

func (e InviteMemberMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
	)
}

type InviteMemberResponse struct {
	Account *Account
	Token   string
}

// InviteMemberHandler creates an account with no password hash and mails an
// invite link. The invitee sets their first password via JoinFromInvite.
type InviteMemberHandler struct {
	repo         RepositoryManager
	codec        *TokenCodec
	mailer       Mailer
	activity     ActivitySink
	logger       Logger
	ttl          time.Duration
	totalModules int
}

func NewInviteMemberHandler(repo RepositoryManager, codec *TokenCodec) *InviteMemberHandler {
	return &InviteMemberHandler{
		repo:     repo,
		codec:    codec,
		mailer:   noopMailer{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		ttl:      ConfirmTokenTTL,
	}
}

// WithTokenTTL overrides the invite token lifetime.
func (h *InviteMemberHandler) WithTokenTTL(ttl time.Duration) *InviteMemberHandler {
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

// WithTotalModules overrides the curriculum length stamped on new accounts.
func (h *InviteMemberHandler) WithTotalModules(n int) *InviteMemberHandler {
	if n > 0 {
		h.totalModules = n
	}
	return h
}

func (h *InviteMemberHandler) WithMailer(m Mailer) *InviteMemberHandler {
	h.mailer = normalizeMailer(m)
	return h
}

func (h *InviteMemberHandler) WithActivitySink(sink ActivitySink) *InviteMemberHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *InviteMemberHandler) WithLogger(logger Logger) *InviteMemberHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InviteMemberHandler) Execute(ctx context.Context, event InviteMemberMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during member invite",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InviteMemberHandler) execute(ctx context.Context, event InviteMemberMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid invite payload")
	}

	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account.Email = event.Email
		account.FirstName = event.FirstName
		account.LastName = event.LastName
		account.Role = event.Role
		account.BankAcctOpen = event.BankAcctOpen
		account.TotalModules = h.totalModules

		var err error
		if account, err = h.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "member invite transaction failed")
	}

	token, err := h.codec.Issue(PurposeConfirm, account.ID, h.ttl, nil)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue invite token")
	}

	dispatchEmail(ctx, h.logger, h.mailer, account.Email, TemplateInvite, map[string]any{
		"first_name": account.FirstName,
		"account_id": account.ID.String(),
		"token":      token,
	})

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventInvited,
		Actor:     event.Actor,
		AccountID: account.ID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&InviteMemberResponse{Account: account, Token: token})
	}

	return nil
}

type JoinFromInviteMessage struct {
	AccountID uuid.UUID `json:"account_id"`
	Token     string    `json:"token"`
	Password  string    `json:"password"`
}

func (e JoinFromInviteMessage) Type() string { return "member.join_from_invite" }

func (e JoinFromInviteMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
	)
}

// JoinFromInviteHandler confirms an invited account and sets its first
// password. An invalid or expired token is self-healing: a fresh invite is
// issued and dispatched automatically before the failure is reported.
type JoinFromInviteHandler struct {
	repo     RepositoryManager
	codec    *TokenCodec
	mailer   Mailer
	activity ActivitySink
	logger   Logger
	ttl      time.Duration
}

func NewJoinFromInviteHandler(repo RepositoryManager, codec *TokenCodec) *JoinFromInviteHandler {
	return &JoinFromInviteHandler{
		repo:     repo,
		codec:    codec,
		mailer:   noopMailer{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		ttl:      ConfirmTokenTTL,
	}
}

// WithTokenTTL overrides the lifetime of reissued invite tokens.
func (h *JoinFromInviteHandler) WithTokenTTL(ttl time.Duration) *JoinFromInviteHandler {
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

func (h *JoinFromInviteHandler) WithMailer(m Mailer) *JoinFromInviteHandler {
	h.mailer = normalizeMailer(m)
	return h
}

func (h *JoinFromInviteHandler) WithActivitySink(sink ActivitySink) *JoinFromInviteHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *JoinFromInviteHandler) WithLogger(logger Logger) *JoinFromInviteHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *JoinFromInviteHandler) Execute(ctx context.Context, event JoinFromInviteMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during join from invite",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *JoinFromInviteHandler) execute(ctx context.Context, event JoinFromInviteMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid join payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.repo.Accounts().GetByID(ctx, event.AccountID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrInvalidOrExpiredToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve invited account")
	}

	if account.PasswordHash != "" {
		return ErrAlreadyJoined
	}

	claims, err := h.codec.Verify(event.Token, PurposeConfirm)
	if err != nil || claims.AccountID != account.ID {
		return h.reissueInvite(ctx, account)
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}

		if err := h.repo.Accounts().SetPasswordTx(ctx, tx, account.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set password")
		}

		return h.repo.Accounts().MarkStageTx(ctx, tx, account.ID, StageEmailConfirmed)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "join from invite transaction failed")
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventJoined,
		Actor:     ActorRef{ID: account.ID.String(), Type: "member"},
		AccountID: account.ID.String(),
	})

	return nil
}

// reissueInvite mints a fresh token and re-dispatches the invite so the
// member is never stranded on an expired link.
func (h *JoinFromInviteHandler) reissueInvite(ctx context.Context, account *Account) error {
	token, err := h.codec.Issue(PurposeConfirm, account.ID, h.ttl, nil)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reissue invite token")
	}

	dispatchEmail(ctx, h.logger, h.mailer, account.Email, TemplateInvite, map[string]any{
		"first_name": account.FirstName,
		"account_id": account.ID.String(),
		"token":      token,
	})

	return ErrInvalidOrExpiredToken
}
