package members_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thriftwise/go-members"
)

func TestArchiveMemberHandler(t *testing.T) {
	repo := &MockRepositoryManager{}
	accounts := &MockAccounts{}
	sink := &MockActivitySink{}

	handler := members.NewArchiveMemberHandler(repo).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	accountID := uuid.New()
	actor := members.ActorRef{ID: uuid.NewString(), Type: "admin"}

	repo.On("Accounts").Return(accounts)
	runTxFn(repo).Once()

	accounts.On("ArchiveTx", mock.Anything, mock.Anything, accountID).
		Return(nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt members.ActivityEvent) bool {
		return evt.EventType == members.ActivityEventArchived &&
			evt.Actor == actor &&
			evt.AccountID == accountID.String()
	})).Return(nil).Once()

	err := handler.Execute(context.Background(), members.ArchiveMemberMessage{
		AccountID: accountID,
		Actor:     actor,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	accounts.AssertExpectations(t)
	sink.AssertExpectations(t)
}
