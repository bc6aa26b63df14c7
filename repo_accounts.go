package members

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MarkAccountStageSQL ORs milestone bits into the stage column. The bitwise
// OR makes re-confirmation idempotent and keeps the bitmask monotonic even
// when two requests race on the same token.
var MarkAccountStageSQL = `UPDATE "accounts" AS "acct"
SET
	"stage" = "stage" | ?
WHERE
	"acct"."deleted_at" IS NULL
AND (
	"acct"."id" = ?
) RETURNING *;`

// SetAccountPasswordSQL replaces the password hash for an account.
var SetAccountPasswordSQL = `UPDATE "accounts" AS "acct"
SET
	"password_hash" = ?
WHERE
	"acct"."deleted_at" IS NULL
AND (
	"acct"."id" = ?
) RETURNING *;`

type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)

	MarkStage(ctx context.Context, id uuid.UUID, milestone Stage) error
	MarkStageTx(ctx context.Context, tx bun.IDB, id uuid.UUID, milestone Stage) error

	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	ReplaceEmail(ctx context.Context, id uuid.UUID, newEmail string) error
	ReplaceEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, newEmail string) error

	Archive(ctx context.Context, id uuid.UUID) error
	ArchiveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)

	created, err := a.Repository.CreateTx(ctx, tx, account)
	if err != nil {
		if IsUniqueViolationError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return created, nil
}

func (a *accounts) MarkStage(ctx context.Context, id uuid.UUID, milestone Stage) error {
	return a.MarkStageTx(ctx, a.db, id, milestone)
}

func (a *accounts) MarkStageTx(ctx context.Context, tx bun.IDB, id uuid.UUID, milestone Stage) error {
	res, err := a.Repository.RawTx(ctx, tx, MarkAccountStageSQL, int64(milestone), id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *accounts) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.SetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *accounts) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, SetAccountPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *accounts) ReplaceEmail(ctx context.Context, id uuid.UUID, newEmail string) error {
	return a.ReplaceEmailTx(ctx, a.db, id, newEmail)
}

func (a *accounts) ReplaceEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, newEmail string) error {
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("email = ?", normalizeEmail(newEmail)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)

	if err != nil {
		if IsUniqueViolationError(err) {
			return ErrEmailTaken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to replace account email")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to replace account email")
	}

	if affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *accounts) Archive(ctx context.Context, id uuid.UUID) error {
	return a.ArchiveTx(ctx, a.db, id)
}

// ArchiveTx sets the archived bit and soft deletes the row. The milestone
// bits already earned stay set.
func (a *accounts) ArchiveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if err := a.MarkStageTx(ctx, tx, id, StageArchived); err != nil {
		return err
	}

	_, err := tx.NewDelete().
		Model((*Account)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.Email = normalizeEmail(record.Email)

	if record.Role == "" {
		record.Role = RoleMember
	}

	if record.GoalAmount == 0 {
		record.GoalAmount = DefaultGoalAmount
	}

	if record.TotalModules == 0 {
		record.TotalModules = DefaultTotalModules
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
