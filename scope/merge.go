// Package scope implements the Scope & Branch Engine (spec §4.7): the
// lexical scope stack with its loop-boundary check, the frame flush used
// when a Do block, an If branch, or the function closes, and the
// If/elseif/else merge algorithm. Loop discard-on-exit and the
// goto/label give-up are done by the analyzer package's driver. It treats table
// records as opaque, acting only through the exported operations on
// *table.State.
package scope

import (
	"sort"

	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/keynorm"
	"github.com/viant/tablelint/table"
	"github.com/viant/tablelint/warning"
)

// Tables is the current-tables map: tracked record by local name.
type Tables map[string]*table.State

// Clone deep-clones every record, for the save/restore contract around
// Do blocks and branches.
func Clone(t Tables) Tables {
	out := make(Tables, len(t))
	for name, st := range t {
		out[name] = st.Clone()
	}
	return out
}

// EndAll runs end_table_variable for every name in t (a Do block or
// function's closing scope flush), removing records whose last alias
// just went out of scope.
func EndAll(sink *warning.Sink, t Tables, names []string, outer table.OuterSuppressor) {
	for _, name := range names {
		st, ok := t[name]
		if !ok {
			continue
		}
		if st.EndVariable(sink, name, outer) {
			for _, alias := range st.AliasNames() {
				delete(t, alias)
			}
			delete(t, name)
		}
	}
}

// Branch is one closed If/elseif/else arm's resulting table map, along
// with whether it definitely returned.
type Branch struct {
	Tables           Tables
	DefinitelyReturns bool
}

// MergeSlot accumulates the closed branches of one If statement.
type MergeSlot struct {
	Branches []Branch
	HasElse  bool
}

// NewMergeSlot creates an empty slot.
func NewMergeSlot() *MergeSlot { return &MergeSlot{} }

// AddBranch records one closed branch's resulting table map.
func (m *MergeSlot) AddBranch(t Tables, definitelyReturns bool) {
	m.Branches = append(m.Branches, Branch{Tables: t, DefinitelyReturns: definitelyReturns})
}

// MergeResult is the outcome of Merge.
type MergeResult struct {
	Tables          Tables
	AllReturn       bool
}

func latestExpr(a, b *item.Expr) *item.Expr {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Pos.Line >= a.Pos.Line:
		return b
	default:
		return a
	}
}

// Merge implements the If/elseif/else join algorithm (spec §4.7). pre is
// the table map as it stood immediately before the branch opened; outer
// suppresses W315 for keys that an enclosing branching scope already
// holds at the same line.
func (m *MergeSlot) Merge(sink *warning.Sink, pre Tables, outer table.OuterSuppressor) MergeResult {
	var normal, alwaysReturn []Tables
	for _, b := range m.Branches {
		if b.DefinitelyReturns {
			alwaysReturn = append(alwaysReturn, b.Tables)
		} else {
			normal = append(normal, b.Tables)
		}
	}

	if m.HasElse && len(alwaysReturn) == len(m.Branches) {
		return MergeResult{Tables: Tables{}, AllReturn: true}
	}

	if m.HasElse && len(normal) == 1 {
		merged := normal[0]
		reportLostKeys(sink, pre, merged, outer)
		return MergeResult{Tables: merged}
	}

	effective := append([]Tables{}, normal...)
	if !m.HasElse {
		effective = append(effective, pre)
	}

	names := map[string]bool{}
	for _, t := range effective {
		for n := range t {
			names[n] = true
		}
	}

	merged := Tables{}
	for name := range names {
		present := true
		for _, t := range effective {
			if _, ok := t[name]; !ok {
				present = false
				break
			}
		}
		if !present {
			continue
		}
		mergedState := mergeOne(name, effective, alwaysReturn)
		if mergedState != nil {
			merged[name] = mergedState
		}
	}

	reportLostKeys(sink, pre, merged, outer)

	return MergeResult{Tables: merged}
}

func mergeOne(name string, effective, alwaysReturn []Tables) *table.State {
	first := effective[0][name]

	aliasSig := func(st *table.State) string {
		names := append([]string(nil), st.AliasNames()...)
		sort.Strings(names)
		sig := ""
		for _, n := range names {
			sig += n + ","
		}
		return sig
	}
	base := aliasSig(first)
	for _, t := range effective[1:] {
		if aliasSig(t[name]) != base {
			return nil
		}
	}

	merged := &table.State{
		ID:           first.ID,
		SetKeys:      map[keynorm.Key]*table.SetEntry{},
		MaybeSetKeys: map[keynorm.Key]*table.SetEntry{},
		AccessedKeys: map[keynorm.Key]*item.Expr{},
		Aliases:      map[string]bool{},
	}
	for n := range first.Aliases {
		merged.Aliases[n] = true
	}

	setKeyUnion := map[keynorm.Key]*table.SetEntry{}
	for _, t := range effective {
		st := t[name]
		for k, e := range st.SetKeys {
			setKeyUnion[k] = e
		}
		for k, e := range st.MaybeSetKeys {
			setKeyUnion[k] = e
		}
	}
	for k, e := range setKeyUnion {
		count := 0
		for _, t := range effective {
			if _, ok := t[name].SetKeys[k]; ok {
				count++
			}
		}
		if count == len(effective) {
			merged.SetKeys[k] = e
		} else {
			merged.MaybeSetKeys[k] = e
		}
	}

	all := append([]Tables{}, effective...)
	all = append(all, alwaysReturn...)
	for _, t := range all {
		st, ok := t[name]
		if !ok {
			continue
		}
		for k, node := range st.AccessedKeys {
			merged.AccessedKeys[k] = latestExpr(merged.AccessedKeys[k], node)
		}
		merged.PotentiallyAllAccessed = latestExpr(merged.PotentiallyAllAccessed, st.PotentiallyAllAccessed)
	}
	for _, t := range effective {
		st := t[name]
		merged.PotentiallyAllSet = latestExpr(merged.PotentiallyAllSet, st.PotentiallyAllSet)
	}

	return merged
}

func reportLostKeys(sink *warning.Sink, pre, merged Tables, outer table.OuterSuppressor) {
	for name, st := range pre {
		mergedSt, ok := merged[name]
		for k := range st.SetKeys {
			lost := true
			if ok {
				if _, set := mergedSt.SetKeys[k]; set {
					lost = false
				}
				if _, maybe := mergedSt.MaybeSetKeys[k]; maybe {
					lost = false
				}
			}
			if lost {
				st.EmitEvictionFor(sink, k, outer)
			}
		}
	}
}
