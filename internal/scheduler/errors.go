package scheduler

import (
	"fmt"
	"strings"
)

// DeadlockError is raised when every live operation is Waiting and none can
// progress (spec.md §4.5, §7).
type DeadlockError struct {
	// Waiting lists the names of every blocked operation.
	Waiting []string
}

func (e *DeadlockError) Error() string {
	if len(e.Waiting) == 1 {
		return fmt.Sprintf(
			"Deadlock detected. '%s' is waiting to receive an event, but no "+
				"other controlled tasks are enabled.",
			e.Waiting[0],
		)
	}

	quoted := make([]string, len(e.Waiting))
	for i, w := range e.Waiting {
		quoted[i] = fmt.Sprintf("'%s'", w)
	}

	return fmt.Sprintf(
		"Deadlock detected. %s are waiting, but no other controlled tasks "+
			"are enabled.",
		strings.Join(quoted, ", "),
	)
}

// ErrReplayExhausted describes a replay trace that ran out before the
// schedule completed. ReplayStrategy does not return it: past the end of
// the trace it falls back to the first enabled operation instead.
var ErrReplayExhausted = fmt.Errorf("scheduler: replay trace exhausted before schedule completed")
