package members_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thriftwise/go-members"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	recent := time.Now().Add(-5 * time.Minute)

	ok, err := members.IsWithinThresholdPeriod(recent, "1h")
	require.NoError(t, err)
	assert.True(t, ok)

	old := time.Now().Add(-48 * time.Hour)
	ok, err = members.IsWithinThresholdPeriod(old, "24h")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour)

	ok, err := members.IsOutsideThresholdPeriod(old, "24h")
	require.NoError(t, err)
	assert.True(t, ok)

	recent := time.Now().Add(-time.Minute)
	ok, err = members.IsOutsideThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestThresholdPeriodRejectsBadPattern(t *testing.T) {
	_, err := members.IsWithinThresholdPeriod(time.Now(), "not-a-duration")
	assert.Error(t, err)
}
