// Package lifecycle owns a session's status state machine: an explicit
// transition table, command validation, and the re-fetch side effect that
// keeps the roster consistent with the backend.
package lifecycle

import "github.com/auralis-health/clinical-console/internal/clinical"

// transitions is the table of normal forward transitions. Reopen (any state
// back to Pending) is deliberately absent: it is an administrative override
// issued through a distinct command, not a natural backward edge.
var transitions = map[clinical.Status][]clinical.Status{
	clinical.StatusPending:   {clinical.StatusApproved, clinical.StatusCancelled},
	clinical.StatusApproved:  {clinical.StatusCompleted, clinical.StatusCancelled},
	clinical.StatusCompleted: {clinical.StatusCancelled},
	clinical.StatusCancelled: {},
}

// Allowed reports whether from -> to is a valid normal transition.
func Allowed(from, to clinical.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
