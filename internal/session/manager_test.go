package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-node/internal/session"
)

func TestSessionLifecycle(t *testing.T) {
	m := session.NewManager()
	targets := []string{"http://n2", "http://n3"}

	state := m.Begin([]byte("group-1"), targets)
	require.NotEmpty(t, state.SessionID)
	assert.Equal(t, session.StatusPending, state.Status)

	got, ok := m.Get(state.SessionID)
	require.True(t, ok)
	assert.Equal(t, targets, got.Targets)

	assert.False(t, m.RecordAcknowledgement(state.SessionID, "http://n2"))
	assert.True(t, m.RecordAcknowledgement(state.SessionID, "http://n3"))

	m.UpdateStatus(state.SessionID, session.StatusFinished)
	got, _ = m.Get(state.SessionID)
	assert.Equal(t, session.StatusFinished, got.Status)
}

func TestUnknownSession(t *testing.T) {
	m := session.NewManager()

	_, ok := m.Get("nope")
	assert.False(t, ok)
	assert.False(t, m.RecordAcknowledgement("nope", "http://n2"))
	m.UpdateStatus("nope", session.StatusFailed)
}

func TestDuplicateAcknowledgement(t *testing.T) {
	m := session.NewManager()
	state := m.Begin([]byte("group-1"), []string{"http://n2", "http://n3"})

	assert.False(t, m.RecordAcknowledgement(state.SessionID, "http://n2"))
	// a repeated ack from the same target does not complete the session
	assert.False(t, m.RecordAcknowledgement(state.SessionID, "http://n2"))
}
