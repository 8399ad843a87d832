package projects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateMachineAllowedEdges(t *testing.T) {
	sm := NewStateMachine()

	assert.True(t, sm.CanTransition(StatusDraft, StatusVerified))
	assert.True(t, sm.CanTransition(StatusDraft, StatusRejected))
	assert.True(t, sm.CanTransition(StatusVerified, StatusRegistered))
	assert.True(t, sm.CanTransition(StatusVerified, StatusRejected))
	assert.True(t, sm.CanTransition(StatusRegistered, StatusTokenized))
}

func TestStateMachineForbiddenEdges(t *testing.T) {
	sm := NewStateMachine()

	assert.False(t, sm.CanTransition(StatusDraft, StatusRegistered))
	assert.False(t, sm.CanTransition(StatusDraft, StatusTokenized))
	assert.False(t, sm.CanTransition(StatusVerified, StatusTokenized))
	assert.False(t, sm.CanTransition(StatusRegistered, StatusRejected))
	assert.False(t, sm.CanTransition(StatusTokenized, StatusDraft))
	assert.False(t, sm.CanTransition(StatusRejected, StatusDraft))

	// terminal statuses have no way out
	for _, to := range []Status{StatusDraft, StatusVerified, StatusRegistered, StatusRejected} {
		assert.False(t, sm.CanTransition(StatusTokenized, to))
	}
	for _, to := range []Status{StatusDraft, StatusVerified, StatusRegistered, StatusTokenized} {
		assert.False(t, sm.CanTransition(StatusRejected, to))
	}
}

func TestStateMachineSelfTransitionIsNoOp(t *testing.T) {
	sm := NewStateMachine()
	for _, s := range []Status{StatusDraft, StatusVerified, StatusRegistered, StatusTokenized, StatusRejected} {
		assert.True(t, sm.CanTransition(s, s))
	}
}

func TestStateMachineAllowedTransitions(t *testing.T) {
	sm := NewStateMachine()

	assert.ElementsMatch(t, []Status{StatusVerified, StatusRejected}, sm.AllowedTransitions(StatusDraft))
	assert.Empty(t, sm.AllowedTransitions(StatusTokenized))
	assert.Empty(t, sm.AllowedTransitions(Status("bogus")))
}
