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

func TestNewLifecycleSharedCodec(t *testing.T) {
	repo := &MockRepositoryManager{}
	accounts := &MockAccounts{}
	repo.On("Accounts").Return(accounts)
	runTxFn(repo)

	accountID := uuid.New()
	var registered *members.Account
	accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			registered = args.Get(2).(*members.Account)
		}).
		Return(&members.Account{ID: accountID, Email: "ada@example.com"}, nil)
	accounts.On("MarkStageTx", mock.Anything, mock.Anything, accountID, members.StageEmailConfirmed).
		Return(nil)

	lc := members.NewLifecycle(members.SimpleConfig{
		SigningKey:   "lifecycle-test-key",
		Issuer:       "members-test",
		TotalModules: 4,
	}, repo).WithLogger(testLogger{})

	var token string
	require.NoError(t, lc.Register.Execute(context.Background(), members.RegisterMemberMessage{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "password12345",
		OnResponse: func(r *members.RegisterMemberResponse) {
			token = r.Token
		},
	}))

	require.NotNil(t, registered)
	assert.Equal(t, 4, registered.TotalModules)
	require.NotEmpty(t, token)

	// a token minted through Register verifies through the shared codec
	require.NoError(t, lc.ConfirmEmail.Execute(context.Background(), members.ConfirmEmailMessage{
		Token: token,
	}))
	accounts.AssertCalled(t, "MarkStageTx",
		mock.Anything, mock.Anything, accountID, members.StageEmailConfirmed)
}

func TestSimpleConfigDefaults(t *testing.T) {
	cfg := members.SimpleConfig{}

	assert.Equal(t, members.ConfirmTokenTTL, cfg.GetConfirmTokenTTL())
	assert.Equal(t, members.ResetTokenTTL, cfg.GetResetTokenTTL())
	assert.Equal(t, members.ChangeEmailTokenTTL, cfg.GetChangeEmailTokenTTL())
	assert.Equal(t, members.DefaultTotalModules, cfg.GetTotalModules())
	assert.Equal(t, "US", cfg.GetPhoneRegion())
	assert.Empty(t, cfg.GetSigningKey())
	assert.Empty(t, cfg.GetIssuer())
}
