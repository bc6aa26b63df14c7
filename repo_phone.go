package members

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PhoneVerifications owns the single-slot pending verification records.
type PhoneVerifications interface {
	repository.Repository[*PendingPhoneVerification]

	GetByAccount(ctx context.Context, accountID uuid.UUID) (*PendingPhoneVerification, error)
	GetByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) (*PendingPhoneVerification, error)

	// Replace persists the record, dropping any prior pending verification
	// for the same account. At most one slot exists per account.
	Replace(ctx context.Context, record *PendingPhoneVerification) error
	ReplaceTx(ctx context.Context, tx bun.IDB, record *PendingPhoneVerification) error

	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error
	DeleteByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error
}

type phoneVerifications struct {
	repository.Repository[*PendingPhoneVerification]
	db *bun.DB
}

var _ PhoneVerifications = (*phoneVerifications)(nil)

func NewPhoneVerificationsRepository(db *bun.DB) PhoneVerifications {
	repo := repository.NewRepository[*PendingPhoneVerification](db, repository.ModelHandlers[*PendingPhoneVerification]{
		NewRecord: func() *PendingPhoneVerification { return &PendingPhoneVerification{} },
		GetID: func(r *PendingPhoneVerification) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.AccountID
		},
		SetID: func(r *PendingPhoneVerification, id uuid.UUID) {
			if r != nil {
				r.AccountID = id
			}
		},
	})

	return &phoneVerifications{
		Repository: repo,
		db:         db,
	}
}

func (p *phoneVerifications) GetByAccount(ctx context.Context, accountID uuid.UUID) (*PendingPhoneVerification, error) {
	return p.GetByAccountTx(ctx, p.db, accountID)
}

func (p *phoneVerifications) GetByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) (*PendingPhoneVerification, error) {
	record := &PendingPhoneVerification{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", accountID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"account_id": accountID.String()})
		}
		return nil, err
	}

	return record, nil
}

func (p *phoneVerifications) Replace(ctx context.Context, record *PendingPhoneVerification) error {
	return p.ReplaceTx(ctx, p.db, record)
}

func (p *phoneVerifications) ReplaceTx(ctx context.Context, tx bun.IDB, record *PendingPhoneVerification) error {
	if err := p.DeleteByAccountTx(ctx, tx, record.AccountID); err != nil {
		return err
	}

	_, err := tx.NewInsert().
		Model(record).
		Exec(ctx)

	return err
}

func (p *phoneVerifications) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	return p.DeleteByAccountTx(ctx, p.db, accountID)
}

func (p *phoneVerifications) DeleteByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*PendingPhoneVerification)(nil)).
		Where("?TableAlias.account_id = ?", accountID).
		Exec(ctx)

	return err
}
