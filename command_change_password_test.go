package members_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thriftwise/go-members"
)

func TestChangePasswordHandler(t *testing.T) {
	repo := &MockRepositoryManager{}
	accounts := &MockAccounts{}
	sink := &MockActivitySink{}

	handler := members.NewChangePasswordHandler(repo).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	accountID := uuid.New()
	hash, err := members.HashPassword("password12345")
	require.NoError(t, err)

	repo.On("Accounts").Return(accounts)
	runTxFn(repo).Once()

	accounts.On("GetByID", mock.Anything, accountID.String(), mock.Anything).
		Return(&members.Account{ID: accountID, PasswordHash: hash}, nil).Once()
	accounts.On("SetPasswordTx", mock.Anything, mock.Anything, accountID, mock.MatchedBy(func(h string) bool {
		return h != "" && h != hash
	})).Return(nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt members.ActivityEvent) bool {
		return evt.EventType == members.ActivityEventPasswordChanged
	})).Return(nil).Once()

	err = handler.Execute(context.Background(), members.ChangePasswordMessage{
		AccountID:       accountID,
		CurrentPassword: "password12345",
		NewPassword:     "newpassword123",
	})

	require.NoError(t, err)
	accounts.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestChangePasswordHandlerWrongCurrentPassword(t *testing.T) {
	repo := &MockRepositoryManager{}
	accounts := &MockAccounts{}

	handler := members.NewChangePasswordHandler(repo).
		WithLogger(testLogger{})

	accountID := uuid.New()
	hash, err := members.HashPassword("password12345")
	require.NoError(t, err)

	repo.On("Accounts").Return(accounts)
	accounts.On("GetByID", mock.Anything, accountID.String(), mock.Anything).
		Return(&members.Account{ID: accountID, PasswordHash: hash}, nil).Once()

	err = handler.Execute(context.Background(), members.ChangePasswordMessage{
		AccountID:       accountID,
		CurrentPassword: "wrong-password",
		NewPassword:     "newpassword123",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, members.ErrAuthenticationFailed)
	repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
}
