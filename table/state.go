// Package table implements the per-tracked-table abstract record (spec
// §3) and its pure transition operations (spec §4.2): the heart of the
// dataflow engine.
package table

import (
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/keynorm"
	"github.com/viant/tablelint/warning"
)

// SetEntry is one set_keys/maybe_set_keys map value: an owning name, the
// key node, and the assigned value node (spec §3's Table record).
type SetEntry struct {
	Owner     string
	KeyNode   *item.Expr
	ValueNode *item.Expr
	IsNil     bool
}

// ShadowedAlias is a local-binding descriptor whose name is currently
// hidden by a redeclaration in an inner scope (spec §3).
type ShadowedAlias struct {
	Name string
}

// State is the abstract record tracked for one local table variable and
// every alias that currently shares it.
type State struct {
	// ID is a logical record identity that survives Clone: two States
	// with equal ID describe the same underlying table, possibly at
	// different points in its history (e.g. the outer, pre-branch
	// snapshot vs. a branch-local clone). A fresh ID means a genuinely
	// different table (a new literal). The Scope & Branch Engine's merge
	// step keeps the first participant's ID; it detects divergent aliasing
	// across sibling branches by comparing alias names, not IDs.
	ID uint64

	SetKeys      map[keynorm.Key]*SetEntry
	MaybeSetKeys map[keynorm.Key]*SetEntry
	AccessedKeys map[keynorm.Key]*item.Expr

	PotentiallyAllSet      *item.Expr
	PotentiallyAllAccessed *item.Expr

	Aliases         map[string]bool
	ShadowedAliases []ShadowedAlias
}

// New creates a fresh record with a single alias: the name it was just
// assigned to (spec §3: "A table record is created on a local
// assignment whose rhs is a Table literal"). id must be unique among all
// records live in one function analysis (the analyzer's per-function
// context assigns it).
func New(id uint64, owner string) *State {
	return &State{
		ID:           id,
		SetKeys:      map[keynorm.Key]*SetEntry{},
		MaybeSetKeys: map[keynorm.Key]*SetEntry{},
		AccessedKeys: map[keynorm.Key]*item.Expr{},
		Aliases:      map[string]bool{owner: true},
	}
}

// OuterSuppressor answers, for an eviction about to be reported, whether
// an outer branching scope already holds the same key at the same line
// (spec §4.2: "overwrites across branches are legitimate").
type OuterSuppressor func(k keynorm.Key, line int) bool

// SetKey implements spec §4.2 set_key.
func (s *State) SetKey(sink *warning.Sink, name string, keyNode, valueNode *item.Expr, inInit bool, outer OuterSuppressor) {
	k, constant := keynorm.Normalize(keyNode, false)
	if !constant {
		if !isNilExpr(valueNode) {
			s.PotentiallyAllSet = keyNode
		}
		return
	}
	s.setConstant(sink, name, k, keyNode, valueNode, inInit, outer)
}

// SetNormalizedKey is SetKey for callers that have already computed the
// canonical Key themselves — the built-in models for table.insert /
// table.remove, which must apply the positional-op numeric-string
// coercion (spec §4.1) and synthesize keys that have no literal key
// node of their own. posNode anchors warnings raised for this key.
func (s *State) SetNormalizedKey(sink *warning.Sink, name string, k keynorm.Key, posNode, valueNode *item.Expr, inInit bool, outer OuterSuppressor) {
	s.setConstant(sink, name, k, posNode, valueNode, inInit, outer)
}

func (s *State) setConstant(sink *warning.Sink, name string, k keynorm.Key, keyNode, valueNode *item.Expr, inInit bool, outer OuterSuppressor) {
	if inInit && isNilExpr(valueNode) {
		return
	}
	if entry, ok := s.SetKeys[k]; ok && !inInit {
		s.emitEviction(sink, k, entry, outer)
		delete(s.SetKeys, k)
	}
	if entry, ok := s.MaybeSetKeys[k]; ok {
		s.emitEviction(sink, k, entry, outer)
		delete(s.MaybeSetKeys, k)
	}
	delete(s.AccessedKeys, k)
	s.SetKeys[k] = &SetEntry{Owner: name, KeyNode: keyNode, ValueNode: valueNode, IsNil: isNilExpr(valueNode)}
}

// TouchAccessed directly marks key as accessed without running the
// warning-emitting access_key policy. Used by the built-in models for
// table.concat/pairs/ipairs/table.remove's internal bookkeeping reads,
// which spec §4.5 describes as "mark ... as accessed" rather than as a
// user-visible field access.
func (s *State) TouchAccessed(k keynorm.Key, node *item.Expr) {
	s.AccessedKeys[k] = node
}

// CountNonNilNumericSetKeys counts definite, non-nil numeric keys —
// table.insert's "#non-nil numeric set keys" (spec §4.5).
func (s *State) CountNonNilNumericSetKeys() int {
	n := 0
	for k, e := range s.SetKeys {
		if _, ok := k.Numeric(); ok && !e.IsNil {
			n++
		}
	}
	return n
}

// MaxNonNilIntegerKey returns the largest non-nil integer key in
// set_keys, table.remove's "L" (spec §4.5), or 0 if there is none.
func (s *State) MaxNonNilIntegerKey() float64 {
	max := 0.0
	for k, e := range s.SetKeys {
		if e.IsNil {
			continue
		}
		if n, ok := k.Numeric(); ok && n == float64(int64(n)) && n > max {
			max = n
		}
	}
	return max
}

// emitEviction applies the W315 emission policy (spec §4.2) for a set
// entry that is about to be overwritten or flushed.
func (s *State) emitEviction(sink *warning.Sink, k keynorm.Key, entry *SetEntry, outer OuterSuppressor) {
	setLine := entry.KeyNode.Pos.Line
	if access := s.AccessedKeys[k]; access != nil && access.Pos.Line >= setLine {
		return
	}
	if s.PotentiallyAllAccessed != nil && s.PotentiallyAllAccessed.Pos.Line >= setLine {
		return
	}
	if outer != nil && outer(k, setLine) {
		return
	}
	sink.Emit(warning.Warning{
		Code:     warning.UnusedSet,
		Name:     entry.Owner,
		Field:    k.String(),
		SetIsNil: entry.IsNil,
		Range:    rangeOf(entry.KeyNode),
	})
}

// EmitEvictionFor runs the W315 emission policy for key k if it is still
// present in set_keys, without removing it — used by the Scope & Branch
// Engine's post-merge "prior set lost across all branches" check (spec
// §4.7), which reports against the pre-branch snapshot's own entries.
func (s *State) EmitEvictionFor(sink *warning.Sink, k keynorm.Key, outer OuterSuppressor) {
	if entry, ok := s.SetKeys[k]; ok {
		s.emitEviction(sink, k, entry, outer)
	}
}

// AccessKey implements spec §4.2 access_key.
func (s *State) AccessKey(sink *warning.Sink, name string, keyNode *item.Expr) {
	k, constant := keynorm.Normalize(keyNode, false)
	if constant {
		entry := s.SetKeys[k]
		if entry == nil {
			entry = s.MaybeSetKeys[k]
		}
		emit := false
		switch {
		case entry == nil:
			emit = s.PotentiallyAllSet == nil
		case entry.IsNil:
			emit = s.PotentiallyAllSet == nil || s.PotentiallyAllSet.Pos.Line < entry.KeyNode.Pos.Line
		}
		if emit {
			sink.Emit(warning.Warning{
				Code:  warning.UnsetAccess,
				Name:  name,
				Field: k.String(),
				Range: rangeOf(keyNode),
			})
		}
		s.AccessedKeys[k] = keyNode
		return
	}
	if !s.hasNonNilSet() && s.PotentiallyAllSet == nil {
		sink.Emit(warning.Warning{
			Code:  warning.UnsetAccess,
			Name:  name,
			Field: "?",
			Range: rangeOf(keyNode),
		})
	}
	s.PotentiallyAllAccessed = keyNode
}

func (s *State) hasNonNilSet() bool {
	for _, e := range s.SetKeys {
		if !e.IsNil {
			return true
		}
	}
	for _, e := range s.MaybeSetKeys {
		if !e.IsNil {
			return true
		}
	}
	return false
}

// EndVariable implements spec §4.2 end_table_variable: removes name from
// Aliases, and if no aliases (real or shadowed) remain, flushes all
// pending sets through the W315 policy and reports that the record is
// now empty so the caller can discard it.
func (s *State) EndVariable(sink *warning.Sink, name string, outer OuterSuppressor) (empty bool) {
	delete(s.Aliases, name)
	if len(s.Aliases) > 0 || len(s.ShadowedAliases) > 0 {
		return false
	}
	s.Flush(sink, outer)
	return true
}

// Flush emits W315 for every live set_keys/maybe_set_keys entry, used
// when a record's last alias goes out of scope and at function end
// (spec §4.7 Function entry: "on_scope_end flushes remaining records").
func (s *State) Flush(sink *warning.Sink, outer OuterSuppressor) {
	for k, entry := range s.SetKeys {
		s.emitEviction(sink, k, entry, outer)
	}
	for k, entry := range s.MaybeSetKeys {
		s.emitEviction(sink, k, entry, outer)
	}
}

// AliasNames returns the current alias names, for the analyzer's
// name→record map maintenance.
func (s *State) AliasNames() []string {
	out := make([]string, 0, len(s.Aliases))
	for n := range s.Aliases {
		out = append(out, n)
	}
	return out
}

// AddAlias adds name as an additional alias of this record (spec §4.4).
func (s *State) AddAlias(name string) { s.Aliases[name] = true }

// ShadowAlias moves name from Aliases into ShadowedAliases, for a local
// redeclaration that hides an existing alias (spec §4.8).
func (s *State) ShadowAlias(name string) {
	if s.Aliases[name] {
		delete(s.Aliases, name)
		s.ShadowedAliases = append(s.ShadowedAliases, ShadowedAlias{Name: name})
	}
}

// RestoreShadow reverts a shadowed alias back to a live alias when the
// shadowing binding goes out of scope (spec §3).
func (s *State) RestoreShadow(name string) bool {
	for i, sh := range s.ShadowedAliases {
		if sh.Name == name {
			s.ShadowedAliases = append(s.ShadowedAliases[:i], s.ShadowedAliases[i+1:]...)
			s.Aliases[name] = true
			return true
		}
	}
	return false
}

// Clone deep-copies the map structure (entries themselves are never
// mutated in place — SetKey always installs a fresh *SetEntry — so a
// shallow copy of entry pointers is safe and cheap), for the
// save/restore contract the Scope & Branch Engine uses around Do blocks
// and branches (spec §9's copy-on-write note).
func (s *State) Clone() *State {
	clone := &State{
		ID:           s.ID,
		SetKeys:      make(map[keynorm.Key]*SetEntry, len(s.SetKeys)),
		MaybeSetKeys: make(map[keynorm.Key]*SetEntry, len(s.MaybeSetKeys)),
		AccessedKeys: make(map[keynorm.Key]*item.Expr, len(s.AccessedKeys)),
		Aliases:      make(map[string]bool, len(s.Aliases)),
	}
	for k, v := range s.SetKeys {
		clone.SetKeys[k] = v
	}
	for k, v := range s.MaybeSetKeys {
		clone.MaybeSetKeys[k] = v
	}
	for k, v := range s.AccessedKeys {
		clone.AccessedKeys[k] = v
	}
	for n := range s.Aliases {
		clone.Aliases[n] = true
	}
	clone.ShadowedAliases = append([]ShadowedAlias(nil), s.ShadowedAliases...)
	clone.PotentiallyAllSet = s.PotentiallyAllSet
	clone.PotentiallyAllAccessed = s.PotentiallyAllAccessed
	return clone
}

func isNilExpr(e *item.Expr) bool {
	return e == nil || e.Tag == item.Nil
}

func rangeOf(e *item.Expr) warning.Range {
	if e == nil {
		return warning.Range{}
	}
	return warning.Range{
		Line:      e.Pos.Line,
		Column:    e.Pos.Column,
		EndLine:   e.Pos.Line,
		EndColumn: e.Pos.EndColumn,
	}
}
