package controlled

import "sync/atomic"

// AccessHook is invoked between bumping and decrementing a collection's
// reader/writer counter, giving a controlled scheduler the chance to
// interleave another operation into the access window (spec.md §9
// "the scheduling point is inserted between counter bump and decrement so
// interleavings actually occur"). The uncontrolled execution context leaves
// this nil, which counters treats as a no-op.
type AccessHook func()

// counters tracks the reader/writer invariant for one controlled collection
// (spec.md §4.7): writer_count ≤ 1, and reader_count > 0 ⇒ writer_count = 0.
// The counters themselves are plain atomics, not guarded by a mutex that
// would itself serialize accesses and defeat the point of the check; the
// caller's backing storage supplies its own concurrency-safety separately.
type counters struct {
	kind    string
	readers atomic.Int64
	writers atomic.Int64
	hook    AccessHook
}

func newCounters(kind string, hook AccessHook) *counters {
	return &counters{kind: kind, hook: hook}
}

func (c *counters) fireHook() {
	if c.hook != nil {
		c.hook()
	}
}

// enterRead bumps the reader count, yields at the scheduling point, then
// re-checks the invariant: a writer that slipped in during the yield is a
// race.
func (c *counters) enterRead() error {
	if c.writers.Load() > 0 {
		return &DataRace{Kind: c.kind, Detail: "read began while a writer was active"}
	}

	c.readers.Add(1)
	c.fireHook()

	if c.writers.Load() > 0 {
		c.readers.Add(-1)
		return &DataRace{Kind: c.kind, Detail: "writer observed during a read"}
	}

	return nil
}

func (c *counters) exitRead() {
	c.readers.Add(-1)
}

// enterWrite bumps the writer count, yields at the scheduling point, then
// re-checks both halves of the invariant.
func (c *counters) enterWrite() error {
	if c.writers.Add(1) > 1 {
		c.writers.Add(-1)
		return &DataRace{Kind: c.kind, Detail: "concurrent write detected"}
	}

	if c.readers.Load() > 0 {
		c.writers.Add(-1)
		return &DataRace{Kind: c.kind, Detail: "write began while a reader was active"}
	}

	c.fireHook()

	if c.writers.Load() != 1 {
		c.writers.Add(-1)
		return &DataRace{Kind: c.kind, Detail: "concurrent write detected"}
	}

	if c.readers.Load() > 0 {
		c.writers.Add(-1)
		return &DataRace{Kind: c.kind, Detail: "reader observed during a write"}
	}

	return nil
}

func (c *counters) exitWrite() {
	c.writers.Add(-1)
}
