package members

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ModuleRecords owns curriculum progress rows, unique per
// (account, module number).
type ModuleRecords interface {
	repository.Repository[*ModuleProgress]

	// UpsertByModule records progress for a module number. Recording the
	// same module twice keeps a single row with the latest filename and
	// certificate reference.
	UpsertByModule(ctx context.Context, record *ModuleProgress) error
	UpsertByModuleTx(ctx context.Context, tx bun.IDB, record *ModuleProgress) error

	CountForAccount(ctx context.Context, accountID uuid.UUID) (int, error)
	CountForAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) (int, error)

	ListForAccount(ctx context.Context, accountID uuid.UUID) ([]*ModuleProgress, error)
}

type moduleRecords struct {
	repository.Repository[*ModuleProgress]
	db *bun.DB
}

var _ ModuleRecords = (*moduleRecords)(nil)

func NewModuleRecordsRepository(db *bun.DB) ModuleRecords {
	repo := repository.NewRepository[*ModuleProgress](db, repository.ModelHandlers[*ModuleProgress]{
		NewRecord: func() *ModuleProgress { return &ModuleProgress{} },
		GetID: func(r *ModuleProgress) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *ModuleProgress, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &moduleRecords{
		Repository: repo,
		db:         db,
	}
}

func (m *moduleRecords) UpsertByModule(ctx context.Context, record *ModuleProgress) error {
	return m.UpsertByModuleTx(ctx, m.db, record)
}

func (m *moduleRecords) UpsertByModuleTx(ctx context.Context, tx bun.IDB, record *ModuleProgress) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (account_id, module_num) DO UPDATE").
		Set("filename = EXCLUDED.filename").
		Set("certificate_url = EXCLUDED.certificate_url").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)

	return err
}

func (m *moduleRecords) CountForAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	return m.CountForAccountTx(ctx, m.db, accountID)
}

func (m *moduleRecords) CountForAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) (int, error) {
	return tx.NewSelect().
		Model((*ModuleProgress)(nil)).
		Where("?TableAlias.account_id = ?", accountID).
		Count(ctx)
}

func (m *moduleRecords) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]*ModuleProgress, error) {
	records := []*ModuleProgress{}
	err := m.db.NewSelect().
		Model(&records).
		Where("?TableAlias.account_id = ?", accountID).
		Order("module_num ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}
