package projects

import "fmt"

// InvalidTransitionError reports a disallowed status transition attempt
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid project transition from %q to %q", e.From, e.To)
}

// StateMachine enforces project status transitions
type StateMachine struct {
	allowedTransitions map[Status][]Status
}

// NewStateMachine creates a state machine with the registry's transition table.
// Guards (legal approval, chain deployment, ledger issuance) are enforced by
// the components that own them; the table only encodes reachable edges.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[Status][]Status{
			StatusDraft:      {StatusVerified, StatusRejected},
			StatusVerified:   {StatusRegistered, StatusRejected},
			StatusRegistered: {StatusTokenized},
			StatusTokenized:  {},
			StatusRejected:   {},
		},
	}
}

// CanTransition checks if a status transition is allowed. Transitions into
// the current status are allowed as retried-request no-ops.
func (sm *StateMachine) CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) AllowedTransitions(from Status) []Status {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []Status{}
	}
	return allowed
}
