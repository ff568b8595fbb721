package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/auralis-health/clinical-console/internal/clinical"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		name string
		from clinical.Status
		to   clinical.Status
		want bool
	}{
		{"pending to approved", clinical.StatusPending, clinical.StatusApproved, true},
		{"pending to cancelled", clinical.StatusPending, clinical.StatusCancelled, true},
		{"pending to completed skips approval", clinical.StatusPending, clinical.StatusCompleted, false},
		{"approved to completed", clinical.StatusApproved, clinical.StatusCompleted, true},
		{"approved to cancelled", clinical.StatusApproved, clinical.StatusCancelled, true},
		{"completed withdrawal", clinical.StatusCompleted, clinical.StatusCancelled, true},
		{"cancelled is terminal", clinical.StatusCancelled, clinical.StatusApproved, false},
		{"cancelled to completed", clinical.StatusCancelled, clinical.StatusCompleted, false},
		{"no backward approve", clinical.StatusCompleted, clinical.StatusApproved, false},
		{"reopen is not a normal transition", clinical.StatusCancelled, clinical.StatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.from, tc.to))
		})
	}
}
