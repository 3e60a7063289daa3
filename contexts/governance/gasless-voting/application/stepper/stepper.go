// Package stepper implements the ordered step map that backs the gasless
// sagas: per-step status with a stored result or error, a derived aggregate
// status, and replay that skips already-successful steps.
package stepper

import (
	"context"
	"fmt"
	"sync"
)

// Status is the lifecycle state of a single step. Steps start waiting, move
// to active while their operation runs, and end in success or error.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is the stored outcome of one step.
type State struct {
	Status Status
	Result any
	Err    error
}

// StepState pairs a step id with its state for ordered snapshots.
type StepState[K comparable] struct {
	ID    K
	State State
}

// Stepper owns a fixed, ordered set of step ids. Keys are declared at
// construction and never added or removed afterwards. A single saga
// invocation owns the write side at a time; snapshot reads (State, States,
// Global) are safe while an invocation runs, so progress can be observed
// concurrently.
type Stepper[K comparable] struct {
	mu     sync.RWMutex
	order  []K
	states map[K]State
}

// New declares the steps in execution order, all initially waiting.
func New[K comparable](order ...K) *Stepper[K] {
	s := &Stepper[K]{
		order:  append([]K(nil), order...),
		states: make(map[K]State, len(order)),
	}
	s.Reset()
	return s
}

// Reset puts every step back to waiting and discards stored results and
// errors. It does not undo external side effects already performed.
func (s *Stepper[K]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		s.states[id] = State{Status: StatusWaiting}
	}
}

// Set overrides a step's status directly. Used for steps with no asynchronous
// body, such as a terminal ready marker.
func (s *Stepper[K]) Set(id K, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[id]
	if !ok {
		return
	}
	state.Status = status
	s.states[id] = state
}

// State returns the stored state of a declared step.
func (s *Stepper[K]) State(id K) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[id]
	return state, ok
}

// States returns a snapshot of every step in declared order.
func (s *Stepper[K]) States() []StepState[K] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]StepState[K], 0, len(s.order))
	for _, id := range s.order {
		snapshot = append(snapshot, StepState[K]{ID: id, State: s.states[id]})
	}
	return snapshot
}

// Global derives the aggregate status: error if any step errored, success if
// every step succeeded, active if any step is running, waiting otherwise.
func (s *Stepper[K]) Global() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	anyActive := false
	allSuccess := len(s.order) > 0
	for _, id := range s.order {
		switch s.states[id].Status {
		case StatusError:
			return StatusError
		case StatusActive:
			anyActive = true
			allSuccess = false
		case StatusWaiting:
			allSuccess = false
		}
	}
	if allSuccess {
		return StatusSuccess
	}
	if anyActive {
		return StatusActive
	}
	return StatusWaiting
}

// Do executes op as the body of the given step: the step turns active, then
// success with the stored result or error with the stored failure, which is
// also returned so the saga aborts its remaining steps. When the step already
// succeeded in a prior invocation, op is not re-invoked and the stored result
// is returned, which keeps partially failed sagas safely re-callable without
// repeating non-idempotent external calls.
func Do[K comparable, T any](
	ctx context.Context,
	s *Stepper[K],
	id K,
	op func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	s.mu.Lock()
	state, ok := s.states[id]
	if !ok {
		s.mu.Unlock()
		return zero, fmt.Errorf("step %v is not declared", id)
	}
	if state.Status == StatusSuccess {
		s.mu.Unlock()
		result, _ := state.Result.(T)
		return result, nil
	}
	s.states[id] = State{Status: StatusActive}
	s.mu.Unlock()

	// The lock is not held while op runs, only around state transitions.
	result, err := op(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.states[id] = State{Status: StatusError, Err: err}
		return zero, err
	}
	s.states[id] = State{Status: StatusSuccess, Result: result}
	return result, nil
}
