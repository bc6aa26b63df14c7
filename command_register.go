package members

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// Email templates rendered by the external mailer.
const (
	TemplateConfirmAccount = "account/email/confirm"
	TemplateInvite         = "account/email/invite"
	TemplateResetPassword  = "account/email/reset_password"
	TemplateChangeEmail    = "account/email/change_email"
)

type RegisterMemberMessage struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	MobilePhone string `json:"mobile_phone"`
	Password    string `json:"password"`
	UseHashid   bool
	OnResponse  func(resp *RegisterMemberResponse)
}

func (e RegisterMemberMessage) Type() string { return "member.register" }

// Validate will run validation rules
func (e RegisterMemberMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
	)
}

type RegisterMemberResponse struct {
	Account *Account
	Token   string
}

// RegisterMemberHandler creates a self-service account and dispatches the
// confirmation link. The new account starts with no stage bits set.
type RegisterMemberHandler struct {
	repo         RepositoryManager
	codec        *TokenCodec
	mailer       Mailer
	activity     ActivitySink
	logger       Logger
	ttl          time.Duration
	totalModules int
}

func NewRegisterMemberHandler(repo RepositoryManager, codec *TokenCodec) *RegisterMemberHandler {
	return &RegisterMemberHandler{
		repo:     repo,
		codec:    codec,
		mailer:   noopMailer{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		ttl:      ConfirmTokenTTL,
	}
}

// WithTokenTTL overrides the confirmation token lifetime.
func (h *RegisterMemberHandler) WithTokenTTL(ttl time.Duration) *RegisterMemberHandler {
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

// WithTotalModules overrides the curriculum length stamped on new accounts.
func (h *RegisterMemberHandler) WithTotalModules(n int) *RegisterMemberHandler {
	if n > 0 {
		h.totalModules = n
	}
	return h
}

// WithMailer sets the mailer used to dispatch the confirmation link.
func (h *RegisterMemberHandler) WithMailer(m Mailer) *RegisterMemberHandler {
	h.mailer = normalizeMailer(m)
	return h
}

// WithActivitySink sets the sink used to emit registration events.
func (h *RegisterMemberHandler) WithActivitySink(sink ActivitySink) *RegisterMemberHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterMemberHandler) WithLogger(logger Logger) *RegisterMemberHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterMemberHandler) Execute(ctx context.Context, event RegisterMemberMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during member registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterMemberHandler) execute(ctx context.Context, event RegisterMemberMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}

		account.PasswordHash = hash
		account.Email = event.Email
		account.MobilePhone = event.MobilePhone
		account.FirstName = event.FirstName
		account.LastName = event.LastName
		account.TotalModules = h.totalModules
		if event.UseHashid {
			if id, err := hashid.NewUUID(normalizeEmail(event.Email)); err == nil {
				account.ID = id
			}
		}

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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "member registration transaction failed")
	}

	token, err := h.codec.Issue(PurposeConfirm, account.ID, h.ttl, nil)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue confirmation token")
	}

	dispatchEmail(ctx, h.logger, h.mailer, account.Email, TemplateConfirmAccount, map[string]any{
		"first_name": account.FirstName,
		"token":      token,
	})

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventRegistered,
		Actor:     ActorRef{ID: account.ID.String(), Type: "member"},
		AccountID: account.ID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&RegisterMemberResponse{Account: account, Token: token})
	}

	return nil
}

// dispatchEmail delivers fire-and-forget: failures are logged and never fail
// the transition that triggered the send.
func dispatchEmail(ctx context.Context, logger Logger, mailer Mailer, recipient, template string, data map[string]any) {
	if err := normalizeMailer(mailer).Send(ctx, recipient, template, data); err != nil {
		logger.Warn("email dispatch failed: %v", err)
	}
}

// recordActivity emits best-effort audit events.
func recordActivity(ctx context.Context, logger Logger, sink ActivitySink, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil {
		logger.Warn("activity sink error: %v", err)
	}
}
