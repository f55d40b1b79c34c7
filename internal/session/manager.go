package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status values for a propagation session.
const (
	StatusPending  = "Pending"
	StatusFinished = "Finished"
	StatusFailed   = "Failed"
)

// State tracks one propagation fan-out: which peers were targeted and which
// have acknowledged. Kept for observability; the join barrier itself lives in
// the relay workflow.
type State struct {
	SessionID        string
	PrivacyGroupID   []byte
	Targets          []string
	Acknowledgements map[string]bool
	Status           string
	CreatedAt        time.Time
}

// Manager handles the lifecycle of propagation sessions.
type Manager struct {
	sessions map[string]*State
	mu       sync.RWMutex
}

// NewManager creates a new session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*State)}
}

// Begin opens a session for a fan-out over the given peer URLs.
func (m *Manager) Begin(groupID []byte, targets []string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := &State{
		SessionID:        uuid.NewString(),
		PrivacyGroupID:   groupID,
		Targets:          targets,
		Acknowledgements: make(map[string]bool, len(targets)),
		Status:           StatusPending,
		CreatedAt:        time.Now(),
	}
	m.sessions[state.SessionID] = state
	return state
}

// Get retrieves a session by its ID.
func (m *Manager) Get(sessionID string) (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, exists := m.sessions[sessionID]
	return state, exists
}

// RecordAcknowledgement records an acknowledgement from a target and reports
// whether every target has now acknowledged.
func (m *Manager) RecordAcknowledgement(sessionID, target string) (allAcksReceived bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.sessions[sessionID]
	if !exists {
		return false
	}
	state.Acknowledgements[target] = true

	ackCount := 0
	for _, t := range state.Targets {
		if state.Acknowledgements[t] {
			ackCount++
		}
	}
	return ackCount == len(state.Targets)
}

// UpdateStatus updates the status of a session.
func (m *Manager) UpdateStatus(sessionID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, exists := m.sessions[sessionID]; exists {
		state.Status = status
	}
}
