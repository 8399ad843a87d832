package credits

import (
	"errors"
	"fmt"
)

// ErrAlreadyIssued is returned when a project already has a ledger
var ErrAlreadyIssued = errors.New("credits already issued for project")

// ErrLedgerNotFound is returned when a project has no ledger yet
var ErrLedgerNotFound = errors.New("credit ledger not found")

// InsufficientError reports a pool move larger than the source pool
type InsufficientError struct {
	Pool      string
	Requested float64
	Current   float64
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient %s credits: requested %.2f, have %.2f", e.Pool, e.Requested, e.Current)
}
