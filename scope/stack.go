package scope

import "github.com/viant/tablelint/table"

// ShadowEvent records that declaring name inside a frame hid an existing
// alias of record (spec §4.8): the binding restores when the frame
// closes.
type ShadowEvent struct {
	Name   string
	Record *table.State
}

// Frame is one lexical scope level: the locals declared directly in it,
// any aliases they shadowed, and whether it is a loop body
// (While/Fornum/Forin/Repeat).
type Frame struct {
	Locals   map[string]bool
	Declared []string
	Shadows  []ShadowEvent
	IsLoop   bool
}

// Stack is the lexical scope stack the driver pushes/pops as it enters
// and leaves Do blocks, branches, and loops.
type Stack struct {
	frames []*Frame
}

// NewStack creates a stack with the function's root frame already
// pushed.
func NewStack() *Stack {
	s := &Stack{}
	s.Push(false)
	return s
}

// Push opens a new lexical frame.
func (s *Stack) Push(isLoop bool) {
	s.frames = append(s.frames, &Frame{Locals: map[string]bool{}, IsLoop: isLoop})
}

// Pop closes and returns the innermost frame.
func (s *Stack) Pop() *Frame {
	if len(s.frames) == 0 {
		return &Frame{Locals: map[string]bool{}}
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

// DeclareLocal records name as declared in the innermost frame.
func (s *Stack) DeclareLocal(name string) {
	f := s.frames[len(s.frames)-1]
	f.Locals[name] = true
	f.Declared = append(f.Declared, name)
}

// RecordShadow notes that declaring name in the innermost frame hid an
// existing alias of record, to be restored when the frame closes.
func (s *Stack) RecordShadow(name string, record *table.State) {
	f := s.frames[len(s.frames)-1]
	f.Shadows = append(f.Shadows, ShadowEvent{Name: name, Record: record})
}

// LoopExternal implements the §4.5 "originated outside a containing
// loop" check: walking outward from the innermost frame, if name's
// declaring frame is found before a loop-frame boundary is crossed the
// table is NOT loop-external; if a loop frame is crossed first, it is.
func (s *Stack) LoopExternal(name string) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if f.Locals[name] {
			return false
		}
		if f.IsLoop {
			return true
		}
	}
	return false
}

// Depth returns the current nesting depth, for diagnostics/tests.
func (s *Stack) Depth() int { return len(s.frames) }
