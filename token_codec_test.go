package members_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thriftwise/go-members"
)

func newTestCodec() *members.TokenCodec {
	return members.NewTokenCodec([]byte("test-signing-key"), "members-test", testLogger{})
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := newTestCodec()
	accountID := uuid.New()

	token, err := codec.Issue(members.PurposeConfirm, accountID, time.Hour, nil)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Verify(token, members.PurposeConfirm)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
}

func TestTokenCodecCarriesExtra(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.Issue(members.PurposeChangeEmail, uuid.New(), time.Hour, map[string]string{
		"new_email": "new@example.com",
	})
	require.NoError(t, err)

	claims, err := codec.Verify(token, members.PurposeChangeEmail)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", claims.Extra["new_email"])
}

func TestTokenCodecRejectsWrongPurpose(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.Issue(members.PurposeConfirm, uuid.New(), time.Hour, nil)
	require.NoError(t, err)

	_, err = codec.Verify(token, members.PurposeReset)
	require.Error(t, err)
	assert.True(t, members.IsInvalidToken(err))
}

func TestTokenCodecRejectsExpired(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.Issue(members.PurposeReset, uuid.New(), time.Millisecond, nil)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = codec.Verify(token, members.PurposeReset)
	require.Error(t, err)
	assert.True(t, members.IsInvalidToken(err))
}

func TestTokenCodecRejectsWrongKey(t *testing.T) {
	codec := newTestCodec()
	other := members.NewTokenCodec([]byte("another-key"), "members-test", testLogger{})

	token, err := codec.Issue(members.PurposeConfirm, uuid.New(), time.Hour, nil)
	require.NoError(t, err)

	_, err = other.Verify(token, members.PurposeConfirm)
	require.Error(t, err)
	assert.True(t, members.IsInvalidToken(err))
}

func TestTokenCodecRejectsGarbage(t *testing.T) {
	codec := newTestCodec()

	_, err := codec.Verify("not-a-token", members.PurposeConfirm)
	require.Error(t, err)
	assert.True(t, members.IsInvalidToken(err))
}

func TestTokenCodecRejectsNonPositiveTTL(t *testing.T) {
	codec := newTestCodec()

	_, err := codec.Issue(members.PurposeConfirm, uuid.New(), 0, nil)
	require.Error(t, err)

	_, err = codec.Issue(members.PurposeConfirm, uuid.New(), -time.Hour, nil)
	require.Error(t, err)
}
