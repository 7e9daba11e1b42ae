// Package replay persists and replays the scheduling decisions one
// controlled schedule made, so a run that finds a bug can be reproduced
// exactly (spec.md §6 "persisted replay trace"). The on-disk format is
// JSON Lines: one record per line, tolerant of a truncated or merely
// trailing final line, so a trace written by a run that crashed mid-write
// is still replayable up to its last complete record.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/roasbeef/actorlab/internal/scheduler"
)

// recordKind tags which of the two pick types a line holds.
type recordKind string

const (
	kindSchedule recordKind = "schedule"
	kindRandom   recordKind = "random"
)

// record is the on-disk shape of one line.
type record struct {
	Kind  recordKind `json:"kind"`
	OpID  string     `json:"op_id,omitempty"`
	Value int        `json:"value,omitempty"`
}

// Writer records schedule and random-oracle picks as they happen,
// implementing scheduler.Recorder. It is not safe for concurrent use: the
// scheduler it's attached to only ever has one operation holding the
// token at a time, so picks are already serialized by construction.
type Writer struct {
	w   *bufio.Writer
	enc *json.Encoder
	f   io.Closer
}

// NewWriter creates (or truncates) path and returns a Writer appending
// records to it.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("replay: create trace file: %w", err)
	}

	bw := bufio.NewWriter(f)

	return &Writer{w: bw, enc: json.NewEncoder(bw), f: f}, nil
}

// RecordSchedulePick appends a SchedulePick(op_id) record.
func (w *Writer) RecordSchedulePick(opID string) {
	_ = w.enc.Encode(record{Kind: kindSchedule, OpID: opID})
}

// RecordRandomPick appends a RandomPick(value) record.
func (w *Writer) RecordRandomPick(value int) {
	_ = w.enc.Encode(record{Kind: kindRandom, Value: value})
}

// Close flushes buffered output and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("replay: flush trace file: %w", err)
	}

	return w.f.Close()
}

// Source is a trace read back from disk, implementing
// scheduler.ReplaySource. Construction reads the whole file up front: a
// replay trace bounds one schedule's length, which in practice is small
// enough not to warrant streaming.
type Source struct {
	schedule []string
	random   []int

	scheduleIdx int
	randomIdx   int
}

// Load reads the trace at path, skipping any final line that isn't a
// complete, valid JSON record (the tolerated "crashed mid-write" case).
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open trace file: %w", err)
	}
	defer f.Close()

	src := &Source{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			// A malformed final line means the writer was interrupted
			// mid-record; everything before it is still a valid prefix.
			break
		}

		switch rec.Kind {
		case kindSchedule:
			src.schedule = append(src.schedule, rec.OpID)
		case kindRandom:
			src.random = append(src.random, rec.Value)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("replay: read trace file: %w", err)
	}

	return src, nil
}

// NextSchedulePick implements scheduler.ReplaySource.
func (s *Source) NextSchedulePick() (string, bool) {
	if s.scheduleIdx >= len(s.schedule) {
		return "", false
	}

	id := s.schedule[s.scheduleIdx]
	s.scheduleIdx++

	return id, true
}

// NextRandomPick implements scheduler.ReplaySource.
func (s *Source) NextRandomPick() (int, bool) {
	if s.randomIdx >= len(s.random) {
		return 0, false
	}

	v := s.random[s.randomIdx]
	s.randomIdx++

	return v, true
}

// SchedulePicks returns every SchedulePick op id recorded in the trace, in
// order, regardless of how many have already been consumed by
// NextSchedulePick. Used by tooling that inspects a trace file without
// driving a replay (e.g. actorlab replay show).
func (s *Source) SchedulePicks() []string {
	out := make([]string, len(s.schedule))
	copy(out, s.schedule)

	return out
}

// RandomPicks returns every RandomPick value recorded in the trace, in
// order, regardless of how many have already been consumed by
// NextRandomPick.
func (s *Source) RandomPicks() []int {
	out := make([]int, len(s.random))
	copy(out, s.random)

	return out
}

var (
	_ scheduler.Recorder     = (*Writer)(nil)
	_ scheduler.ReplaySource = (*Source)(nil)
)
