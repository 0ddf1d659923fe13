package services

import (
	"sync"
)

// tracker records the lifecycle state of one service and reports every
// transition to an optional callback.
type tracker struct {
	mu        sync.RWMutex
	name      string
	state     State
	lastError error
	history   []State
	callback  StateChangeCallback
}

func newTracker(name string, callback StateChangeCallback) *tracker {
	return &tracker{
		name:     name,
		state:    StateUnchecked,
		history:  []State{StateUnchecked},
		callback: callback,
	}
}

// State returns the current state
func (t *tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// LastError returns the error attached to the latest transition
func (t *tracker) LastError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastError
}

// History returns every state visited, in order
func (t *tracker) History() []State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]State(nil), t.history...)
}

// Transition moves to newState and notifies the callback
func (t *tracker) Transition(newState State, err error) {
	t.mu.Lock()
	oldState := t.state
	t.state = newState
	t.lastError = err
	t.history = append(t.history, newState)
	callback := t.callback
	t.mu.Unlock()

	// Call the callback outside of the lock to avoid deadlocks
	if callback != nil && oldState != newState {
		callback(t.name, oldState, newState, err)
	}
}
