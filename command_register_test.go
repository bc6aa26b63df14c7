package members_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thriftwise/go-members"
	"github.com/uptrace/bun"
)

func TestRegisterMemberHandler(t *testing.T) {
	repo := &MockRepositoryManager{}
	accounts := &MockAccounts{}
	mailer := &MockMailer{}
	sink := &MockActivitySink{}
	codec := newTestCodec()

	handler := members.NewRegisterMemberHandler(repo, codec).
		WithMailer(mailer).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	accountID := uuid.New()

	repo.On("Accounts").Return(accounts)
	runTxFn(repo).Once()

	accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *members.Account) bool {
		return a.Email == "ada@example.com" && a.PasswordHash != ""
	})).Return(&members.Account{
		ID:        accountID,
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, nil).Once()

	mailer.On("Send", mock.Anything, "ada@example.com", members.TemplateConfirmAccount, mock.Anything).
		Return(nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt members.ActivityEvent) bool {
		return evt.EventType == members.ActivityEventRegistered &&
			evt.AccountID == accountID.String()
	})).Return(nil).Once()

	var resp *members.RegisterMemberResponse
	err := handler.Execute(context.Background(), members.RegisterMemberMessage{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "password12345",
		OnResponse: func(r *members.RegisterMemberResponse) {
			resp = r
		},
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, accountID, resp.Account.ID)
	assert.NotEmpty(t, resp.Token)

	// the issued token is a live confirmation token
	claims, err := codec.Verify(resp.Token, members.PurposeConfirm)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)

	repo.AssertExpectations(t)
	accounts.AssertExpectations(t)
	mailer.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestRegisterMemberHandlerEmailTaken(t *testing.T) {
	repo := &MockRepositoryManager{}
	accounts := &MockAccounts{}
	mailer := &MockMailer{}

	handler := members.NewRegisterMemberHandler(repo, newTestCodec()).
		WithMailer(mailer).
		WithLogger(testLogger{})

	repo.On("Accounts").Return(accounts)
	repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).
		Return(members.ErrEmailTaken).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			var tx bun.Tx
			_ = fn(args.Get(0).(context.Context), tx)
		}).Once()

	accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, members.ErrEmailTaken).Once()

	err := handler.Execute(context.Background(), members.RegisterMemberMessage{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "taken@example.com",
		Password:  "password12345",
	})

	require.Error(t, err)
	assert.True(t, members.IsEmailTaken(err))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterMemberHandlerRejectsInvalidPayload(t *testing.T) {
	repo := &MockRepositoryManager{}
	handler := members.NewRegisterMemberHandler(repo, newTestCodec()).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), members.RegisterMemberMessage{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "short",
	})

	require.Error(t, err)
	repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
}
