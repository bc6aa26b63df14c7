package members_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thriftwise/go-members"
)

func TestStageBitValues(t *testing.T) {
	assert.EqualValues(t, 0, members.StageUnconfirmed)
	assert.EqualValues(t, 1, members.StageEmailConfirmed)
	assert.EqualValues(t, 2, members.StagePrimaryInfoSubmitted)
	assert.EqualValues(t, 4, members.StagePhoneConfirmed)
	assert.EqualValues(t, 8, members.StageProfileCompleted)
	assert.EqualValues(t, 16, members.StageModulesCompleted)
	assert.EqualValues(t, 32, members.StageBalanceTracked)
	assert.EqualValues(t, 63, members.StageComplete)
	assert.EqualValues(t, 64, members.StageArchived)
}

func TestStageHas(t *testing.T) {
	s := members.StageEmailConfirmed.With(members.StagePhoneConfirmed)

	assert.True(t, s.Has(members.StageEmailConfirmed))
	assert.True(t, s.Has(members.StagePhoneConfirmed))
	assert.False(t, s.Has(members.StageProfileCompleted))
	assert.False(t, s.Has(members.StageEmailConfirmed.With(members.StageProfileCompleted)))
}

func TestStageHasUnconfirmed(t *testing.T) {
	assert.True(t, members.StageUnconfirmed.Has(members.StageUnconfirmed))
	assert.False(t, members.StageEmailConfirmed.Has(members.StageUnconfirmed))
}

func TestStageWithIsIdempotent(t *testing.T) {
	s := members.StageEmailConfirmed.With(members.StageEmailConfirmed)
	assert.Equal(t, members.StageEmailConfirmed, s)
}

func TestStageComplete(t *testing.T) {
	s := members.StageUnconfirmed.
		With(members.StageEmailConfirmed).
		With(members.StagePrimaryInfoSubmitted).
		With(members.StagePhoneConfirmed).
		With(members.StageProfileCompleted).
		With(members.StageModulesCompleted)

	assert.False(t, s.IsComplete())

	s = s.With(members.StageBalanceTracked)
	assert.True(t, s.IsComplete())
	assert.Equal(t, members.StageComplete, s)
}

func TestStageArchivedIsOrthogonal(t *testing.T) {
	s := members.StageComplete.With(members.StageArchived)

	assert.True(t, s.IsArchived())
	assert.True(t, s.IsComplete())
	assert.False(t, members.StageComplete.IsArchived())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "unconfirmed", members.StageUnconfirmed.String())
	assert.Equal(t, "email_confirmed", members.StageEmailConfirmed.String())

	s := members.StageEmailConfirmed.With(members.StagePhoneConfirmed)
	assert.Equal(t, "email_confirmed|phone_confirmed", s.String())
}
