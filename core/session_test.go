package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	sess := NewSession("sess-1")

	assert.Equal(t, "sess-1", sess.ID)
	require.NotNil(t, sess.Chain)
	require.NotNil(t, sess.Memory)
	assert.Equal(t, 0, sess.Sequence())
	assert.False(t, sess.Created.IsZero())
}

func TestSessionAdvanceSequence(t *testing.T) {
	sess := NewSession("sess-1")

	sess.AdvanceSequence(4)
	assert.Equal(t, 4, sess.Sequence())

	// Lower values never roll the counter back.
	sess.AdvanceSequence(2)
	assert.Equal(t, 4, sess.Sequence())

	sess.AdvanceSequence(9)
	assert.Equal(t, 9, sess.Sequence())
}

func TestSessionAdvanceSequenceUpdatesTimestamp(t *testing.T) {
	sess := NewSession("sess-1")
	before := sess.Updated

	sess.AdvanceSequence(1)
	assert.False(t, sess.Updated.Before(before))
}
