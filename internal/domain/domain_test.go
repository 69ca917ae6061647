package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity("  alice ")
	require.NoError(t, err)
	assert.Equal(t, Identity("alice"), id)

	_, err = ParseIdentity("   ")
	assert.ErrorIs(t, err, ErrIdentityEmpty)

	_, err = ParseIdentity(strings.Repeat("x", MaxIdentityLen+1))
	assert.ErrorIs(t, err, ErrIdentityTooLong)

	_, err = ParseIdentity(strings.Repeat("x", MaxIdentityLen))
	assert.NoError(t, err)
}

func TestCallStatus(t *testing.T) {
	assert.False(t, CallRinging.Terminal())
	for _, s := range []CallStatus{CallAccepted, CallRejected, CallCanceled, CallFailed} {
		assert.True(t, s.Terminal(), s.String())
	}
	assert.Equal(t, "canceled", CallCanceled.String())
	assert.Equal(t, "unknown", CallStatus(42).String())
}

func TestCallPeer(t *testing.T) {
	c := Call{Caller: "alice", Callee: "bob"}
	assert.Equal(t, Identity("bob"), c.Peer("alice"))
	assert.Equal(t, Identity("alice"), c.Peer("bob"))
	assert.True(t, c.Involves("bob"))
	assert.False(t, c.Involves("carol"))
}
