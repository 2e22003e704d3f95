// Package warning defines the W315/W325 output records and the
// append-only sink the engine pushes them into (spec §6).
package warning

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/minio/highwayhash"
)

// Code identifies a warning class.
type Code string

const (
	// UnusedSet (W315) — a table field was set but never subsequently read.
	UnusedSet Code = "315"
	// UnsetAccess (W325) — a table field was read but never assigned.
	UnsetAccess Code = "325"
)

// Range is the source range a warning is anchored to.
type Range struct {
	Line        int
	Column      int
	EndLine     int
	EndColumn   int
}

// Warning is one diagnostic record (spec §6).
type Warning struct {
	Code Code
	// Name is the tracked local's (alias) name at the point of emission.
	Name string
	// Field is the rendered key (numeric or string form, keynorm.Key.String()).
	Field string
	// SetIsNil is true iff, for a W315, the evicted set's stored value
	// was a Nil literal (spec §6: "nil " or "" rendering).
	SetIsNil bool
	Range    Range
}

func (w Warning) nilSuffix() string {
	if w.SetIsNil {
		return "nil "
	}
	return ""
}

// Message renders a human-readable diagnostic string.
func (w Warning) Message() string {
	switch w.Code {
	case UnusedSet:
		return fmt.Sprintf("field %s%s of %s is never accessed", w.nilSuffix(), w.Field, w.Name)
	case UnsetAccess:
		return fmt.Sprintf("accessing undefined field %s of %s", w.Field, w.Name)
	default:
		return fmt.Sprintf("%s: %s.%s", w.Code, w.Name, w.Field)
	}
}

var fingerprintKey = []byte("W315W325TABLELINTFINGERPRINT_KEY")

// Fingerprint returns a stable 64-bit dedup/tie-break key for this
// warning, independent of map iteration order. Reuses the teacher's own
// highwayhash recipe (inspector/graph/hash.go: a fixed 32-byte key fed to
// highwayhash.New64).
func (w Warning) Fingerprint() uint64 {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		// highwayhash.New64 only fails on a malformed key, which is a
		// package-level constant here — a programmer error, not runtime data.
		panic(fmt.Sprintf("warning: invalid highwayhash key: %v", err))
	}
	buf := make([]byte, 0, len(w.Name)+len(w.Field)+24)
	buf = append(buf, w.Code...)
	buf = append(buf, w.Name...)
	buf = append(buf, w.Field...)
	var line [8]byte
	binary.LittleEndian.PutUint64(line[:], uint64(w.Range.Line))
	buf = append(buf, line[:]...)
	binary.LittleEndian.PutUint64(line[:], uint64(w.Range.Column))
	buf = append(buf, line[:]...)
	_, _ = h.Write(buf)
	return h.Sum64()
}

// Sink collects warnings for one function analysis and returns them in
// the sink-ordering contract of spec §5: append-only, totally ordered by
// (source_line, source_column, warning_code) once flushed.
type Sink struct {
	pending []Warning
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Emit appends a warning. Implementations may buffer per-function and
// flush (spec §5); Sink always buffers until Flush is called.
func (s *Sink) Emit(w Warning) {
	s.pending = append(s.pending, w)
}

// Flush returns all buffered warnings sorted per spec §5 and clears the
// buffer.
func (s *Sink) Flush() []Warning {
	out := s.pending
	s.pending = nil
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Range.Line != b.Range.Line {
			return a.Range.Line < b.Range.Line
		}
		if a.Range.Column != b.Range.Column {
			return a.Range.Column < b.Range.Column
		}
		return a.Code < b.Code
	})
	return out
}

// Len reports the number of warnings currently buffered.
func (s *Sink) Len() int { return len(s.pending) }
