// Package controlled implements the race-asserting collection wrappers of
// spec.md §4.7: a Map, a Set and a Slice, each policing the invariant
// writer_count ≤ 1 and reader_count > 0 ⇒ writer_count = 0 on every access,
// and inserting a scheduling point between the counter bump and its
// matching decrement so a controlled scheduler actually gets a chance to
// interleave another operation into the access window.
package controlled

import "fmt"

// DataRace is raised when a collection access violates the reader/writer
// invariant (spec.md §4.7, §7 "Data race").
type DataRace struct {
	// Kind names the collection variant: "map", "set" or "slice".
	Kind string

	// Detail explains which invariant was violated.
	Detail string
}

func (e *DataRace) Error() string {
	return fmt.Sprintf("data race detected on controlled %s: %s", e.Kind, e.Detail)
}
