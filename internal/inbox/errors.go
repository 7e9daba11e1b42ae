package inbox

import (
	"errors"
	"fmt"

	"github.com/roasbeef/actorlab/internal/events"
)

// ErrReceiveAlreadyPending is returned by ReceiveAsync when a Receive is
// already outstanding on this inbox; at most one may be pending at a time
// (spec.md §4.1).
var ErrReceiveAlreadyPending = errors.New("inbox: a receive is already pending")

// ErrMustHandleDropped is returned by Enqueue when a must-handle event was
// dropped because the target inbox is already halted (spec.md §4.1, §7).
var ErrMustHandleDropped = errors.New("inbox: must-handle event dropped, actor already halted")

// TooManyInstancesError reports that enqueuing an event would exceed the
// max-instance bound supplied via events.WithAssertMaxInstances (spec.md
// §4.1, §7). The actor's engine formats the full "There are more than N
// instances of 'T' in the input queue of A()" message using the owning
// actor's type name.
type TooManyInstancesError struct {
	Type events.Type
	Max  int
}

func (e *TooManyInstancesError) Error() string {
	return fmt.Sprintf(
		"there are more than %d instances of '%s' in the input queue",
		e.Max, e.Type,
	)
}

// HaltedBeforeHandlingMustHandleError reports that an actor halted while a
// must-handle event still sat in its inbox (spec.md §4.1, §8 property 6).
type HaltedBeforeHandlingMustHandleError struct {
	Type events.Type
}

func (e *HaltedBeforeHandlingMustHandleError) Error() string {
	return fmt.Sprintf(
		"halted before dequeueing must-handle event '%s'", e.Type,
	)
}
