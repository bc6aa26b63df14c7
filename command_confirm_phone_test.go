package members_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thriftwise/go-members"
)

func pendingVerification(accountID uuid.UUID, code string, age time.Duration) *members.PendingPhoneVerification {
	createdAt := time.Now().Add(-age)
	return &members.PendingPhoneVerification{
		AccountID:   accountID,
		PhoneNumber: "+16502530000",
		Code:        code,
		CreatedAt:   &createdAt,
	}
}

func TestConfirmPhoneHandlerMatch(t *testing.T) {
	repo := &MockRepositoryManager{}
	accounts := &MockAccounts{}
	phones := &MockPhoneVerifications{}
	sink := &MockActivitySink{}

	handler := members.NewConfirmPhoneHandler(repo).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	accountID := uuid.New()

	repo.On("Accounts").Return(accounts)
	repo.On("PhoneVerifications").Return(phones)
	runTxFn(repo).Once()

	phones.On("GetByAccount", mock.Anything, accountID).
		Return(pendingVerification(accountID, "12345", time.Minute), nil).Once()
	phones.On("DeleteByAccountTx", mock.Anything, mock.Anything, accountID).
		Return(nil).Once()

	accounts.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *members.Account) bool {
		return a.MobilePhone == "+16502530000"
	}), mock.Anything).Return(&members.Account{ID: accountID}, nil).Once()
	accounts.On("MarkStageTx", mock.Anything, mock.Anything, accountID, members.StagePhoneConfirmed).
		Return(nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt members.ActivityEvent) bool {
		return evt.EventType == members.ActivityEventPhoneConfirmed
	})).Return(nil).Once()

	var resp *members.ConfirmPhoneResponse
	err := handler.Execute(context.Background(), members.ConfirmPhoneMessage{
		AccountID: accountID,
		Code:      "12345",
		OnResponse: func(r *members.ConfirmPhoneResponse) {
			resp = r
		},
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "+16502530000", resp.PhoneNumber)

	repo.AssertExpectations(t)
	accounts.AssertExpectations(t)
	phones.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestConfirmPhoneHandlerMismatchConsumesSlot(t *testing.T) {
	repo := &MockRepositoryManager{}
	accounts := &MockAccounts{}
	phones := &MockPhoneVerifications{}

	handler := members.NewConfirmPhoneHandler(repo).
		WithLogger(testLogger{})

	accountID := uuid.New()

	repo.On("PhoneVerifications").Return(phones)
	runTxFn(repo).Once()

	phones.On("GetByAccount", mock.Anything, accountID).
		Return(pendingVerification(accountID, "12345", time.Minute), nil).Once()

	// the pending record is deleted even though the code was wrong
	phones.On("DeleteByAccountTx", mock.Anything, mock.Anything, accountID).
		Return(nil).Once()

	err := handler.Execute(context.Background(), members.ConfirmPhoneMessage{
		AccountID: accountID,
		Code:      "54321",
	})

	require.Error(t, err)
	assert.True(t, members.IsCodeMismatch(err))

	phones.AssertExpectations(t)
	accounts.AssertNotCalled(t, "MarkStageTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPhoneHandlerNoPendingRecord(t *testing.T) {
	repo := &MockRepositoryManager{}
	phones := &MockPhoneVerifications{}

	handler := members.NewConfirmPhoneHandler(repo).
		WithLogger(testLogger{})

	accountID := uuid.New()

	repo.On("PhoneVerifications").Return(phones)
	phones.On("GetByAccount", mock.Anything, accountID).
		Return(nil, repository.NewRecordNotFound()).Once()

	err := handler.Execute(context.Background(), members.ConfirmPhoneMessage{
		AccountID: accountID,
		Code:      "12345",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, members.ErrNoPendingVerification)
	repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPhoneHandlerStaleCode(t *testing.T) {
	repo := &MockRepositoryManager{}
	phones := &MockPhoneVerifications{}

	handler := members.NewConfirmPhoneHandler(repo).
		WithLogger(testLogger{})

	accountID := uuid.New()

	repo.On("PhoneVerifications").Return(phones)
	phones.On("GetByAccount", mock.Anything, accountID).
		Return(pendingVerification(accountID, "12345", 48*time.Hour), nil).Once()
	phones.On("DeleteByAccount", mock.Anything, accountID).
		Return(nil).Once()

	err := handler.Execute(context.Background(), members.ConfirmPhoneMessage{
		AccountID: accountID,
		Code:      "12345",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, members.ErrNoPendingVerification)
	phones.AssertExpectations(t)
}
