package members

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type LoginMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(resp *LoginResponse)
}

func (e LoginMessage) Type() string { return "member.login" }

func (e LoginMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required),
	)
}

type LoginResponse struct {
	Account *Account
}

// LoginHandler authenticates by email and password. Unknown emails, archived
// accounts, and wrong passwords all fail with the same error so responses
// carry no enumeration signal.
type LoginHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewLoginHandler(repo RepositoryManager) *LoginHandler {
	return &LoginHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *LoginHandler) WithLogger(logger Logger) *LoginHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *LoginHandler) Execute(ctx context.Context, event LoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *LoginHandler) execute(ctx context.Context, event LoginMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.repo.Accounts().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAuthenticationFailed
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for login")
	}

	if account.Stage.IsArchived() {
		return ErrAuthenticationFailed
	}

	if !account.VerifyPassword(event.Password) {
		return ErrAuthenticationFailed
	}

	if event.OnResponse != nil {
		event.OnResponse(&LoginResponse{Account: account})
	}

	return nil
}
