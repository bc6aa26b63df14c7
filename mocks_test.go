package members_test

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/thriftwise/go-members"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements members.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error { return nil }
func (m *MockRepositoryManager) MustValidate()   {}

func (m *MockRepositoryManager) Accounts() members.Accounts {
	args := m.Called()
	return args.Get(0).(members.Accounts)
}

func (m *MockRepositoryManager) PhoneVerifications() members.PhoneVerifications {
	args := m.Called()
	return args.Get(0).(members.PhoneVerifications)
}

func (m *MockRepositoryManager) ModuleRecords() members.ModuleRecords {
	args := m.Called()
	return args.Get(0).(members.ModuleRecords)
}

func (m *MockRepositoryManager) SavingsHistories() repository.Repository[*members.SavingsHistory] {
	args := m.Called()
	return args.Get(0).(repository.Repository[*members.SavingsHistory])
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

// runTxFn wires a RunInTx expectation that executes the transaction body
// with a zero tx, mirroring what the real manager does against the database.
func runTxFn(repo *MockRepositoryManager) *mock.Call {
	return repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			var tx bun.Tx
			_ = fn(args.Get(0).(context.Context), tx)
		})
}

// MockAccounts stubs the account repository. The embedded interface covers
// generated repository methods no test exercises.
type MockAccounts struct {
	mock.Mock
	members.Accounts
}

func (m *MockAccounts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*members.Account, error) {
	args := m.Called(ctx, id, criteria)
	if record, ok := args.Get(0).(*members.Account); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByEmail(ctx context.Context, email string) (*members.Account, error) {
	args := m.Called(ctx, email)
	if record, ok := args.Get(0).(*members.Account); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*members.Account, error) {
	args := m.Called(ctx, tx, email)
	if record, ok := args.Get(0).(*members.Account); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) RegisterTx(ctx context.Context, tx bun.IDB, account *members.Account) (*members.Account, error) {
	args := m.Called(ctx, tx, account)
	if record, ok := args.Get(0).(*members.Account); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) MarkStageTx(ctx context.Context, tx bun.IDB, id uuid.UUID, milestone members.Stage) error {
	args := m.Called(ctx, tx, id, milestone)
	return args.Error(0)
}

func (m *MockAccounts) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockAccounts) ReplaceEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, newEmail string) error {
	args := m.Called(ctx, tx, id, newEmail)
	return args.Error(0)
}

func (m *MockAccounts) ArchiveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockAccounts) UpdateTx(ctx context.Context, tx bun.IDB, record *members.Account, criteria ...repository.UpdateCriteria) (*members.Account, error) {
	args := m.Called(ctx, tx, record, criteria)
	if updated, ok := args.Get(0).(*members.Account); ok {
		return updated, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPhoneVerifications stubs the pending verification repository
type MockPhoneVerifications struct {
	mock.Mock
	members.PhoneVerifications
}

func (m *MockPhoneVerifications) GetByAccount(ctx context.Context, accountID uuid.UUID) (*members.PendingPhoneVerification, error) {
	args := m.Called(ctx, accountID)
	if record, ok := args.Get(0).(*members.PendingPhoneVerification); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPhoneVerifications) ReplaceTx(ctx context.Context, tx bun.IDB, record *members.PendingPhoneVerification) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

func (m *MockPhoneVerifications) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockPhoneVerifications) DeleteByAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error {
	args := m.Called(ctx, tx, accountID)
	return args.Error(0)
}

// MockModuleRecords stubs the curriculum progress repository
type MockModuleRecords struct {
	mock.Mock
	members.ModuleRecords
}

func (m *MockModuleRecords) UpsertByModuleTx(ctx context.Context, tx bun.IDB, record *members.ModuleProgress) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

func (m *MockModuleRecords) CountForAccountTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, accountID)
	return args.Int(0), args.Error(1)
}

func (m *MockModuleRecords) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]*members.ModuleProgress, error) {
	args := m.Called(ctx, accountID)
	if records, ok := args.Get(0).([]*members.ModuleProgress); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSavingsHistories stubs the balance snapshot repository
type MockSavingsHistories struct {
	mock.Mock
	repository.Repository[*members.SavingsHistory]
}

func (m *MockSavingsHistories) CreateTx(ctx context.Context, tx bun.IDB, record *members.SavingsHistory, criteria ...repository.InsertCriteria) (*members.SavingsHistory, error) {
	args := m.Called(ctx, tx, record, criteria)
	if created, ok := args.Get(0).(*members.SavingsHistory); ok {
		return created, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMailer implements members.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, recipient, template string, data map[string]any) error {
	args := m.Called(ctx, recipient, template, data)
	return args.Error(0)
}

// MockSMSSender implements members.SMSSender
type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) Send(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

// MockActivitySink implements members.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event members.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockUploadSigner implements members.UploadSigner
type MockUploadSigner struct {
	mock.Mock
}

func (m *MockUploadSigner) SignUpload(ctx context.Context, filename, contentType string) (string, error) {
	args := m.Called(ctx, filename, contentType)
	return args.String(0), args.Error(1)
}
