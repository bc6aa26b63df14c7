package members

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Accounts() Accounts
	PhoneVerifications() PhoneVerifications
	ModuleRecords() ModuleRecords
	SavingsHistories() repository.Repository[*SavingsHistory]
}

func NewSavingsHistoriesRepository(db *bun.DB) repository.Repository[*SavingsHistory] {
	handlers := repository.ModelHandlers[*SavingsHistory]{
		NewRecord: func() *SavingsHistory {
			return &SavingsHistory{}
		},
		GetID: func(record *SavingsHistory) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *SavingsHistory, id uuid.UUID) {
			record.ID = id
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db                 *bun.DB
	accounts           Accounts
	phoneVerifications PhoneVerifications
	moduleRecords      ModuleRecords
	savingsHistories   repository.Repository[*SavingsHistory]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:                 db,
		accounts:           NewAccountsRepository(db),
		phoneVerifications: NewPhoneVerificationsRepository(db),
		moduleRecords:      NewModuleRecordsRepository(db),
		savingsHistories:   NewSavingsHistoriesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.phoneVerifications == nil {
		return errors.New("repository phoneVerifications should be initialized")
	}

	if m.moduleRecords == nil {
		return errors.New("repository moduleRecords should be initialized")
	}

	if m.savingsHistories == nil {
		return errors.New("repository savingsHistories should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) PhoneVerifications() PhoneVerifications {
	return m.phoneVerifications
}

func (m mngr) ModuleRecords() ModuleRecords {
	return m.moduleRecords
}

func (m mngr) SavingsHistories() repository.Repository[*SavingsHistory] {
	return m.savingsHistories
}
