// Package extref implements the External Reference Tracker (spec §4.6):
// per-function accessed/set/mutated name sets folded in from nested
// closures, used to invalidate tracked tables at call sites a plain
// dataflow pass over one function's own statements cannot see into.
package extref

import (
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/table"
)

// Tracker holds the three external-reference name sets for one
// function's analysis.
type Tracker struct {
	Accessed map[string]bool
	Set      map[string]bool
	Mutated  map[string]bool
}

// New builds a Tracker for ls at function entry: every parameter is
// marked accessed and mutated, and every name ls itself sets in its
// enclosing scope (its own set_upvalues, i.e. ls is itself a closure) is
// marked in all three sets.
func New(ls *item.LineScope) *Tracker {
	t := &Tracker{Accessed: map[string]bool{}, Set: map[string]bool{}, Mutated: map[string]bool{}}
	for _, p := range ls.Params {
		t.Accessed[p] = true
		t.Mutated[p] = true
	}
	for name := range ls.Upvalues.Set {
		t.Accessed[name] = true
		t.Set[name] = true
		t.Mutated[name] = true
	}
	return t
}

// FoldBefore folds the accessed/set/mutated upvalue sets of every
// closure defined inside the statement about to be processed into the
// tracker, BEFORE that statement runs — so a call later in the same
// statement, or in any statement that follows, sees closures declared
// earlier (spec §4.6).
func (t *Tracker) FoldBefore(closures []*item.LineScope) {
	for _, c := range closures {
		for name := range c.Upvalues.Accessed {
			t.Accessed[name] = true
		}
		for name := range c.Upvalues.Set {
			t.Set[name] = true
		}
		for name := range c.Upvalues.Mutated {
			t.Mutated[name] = true
		}
	}
}

// ApplyCallSite implements the call-site invalidation rule: for each
// tracked table whose name is in Accessed, set potentially_all_accessed
// and potentially_all_set; for Mutated and Set, set potentially_all_set
// only. Records are never wiped by this rule.
func (t *Tracker) ApplyCallSite(tables map[string]*table.State, callNode *item.Expr) {
	for name, st := range tables {
		if t.Accessed[name] {
			st.PotentiallyAllAccessed = callNode
			st.PotentiallyAllSet = callNode
		}
		if t.Mutated[name] || t.Set[name] {
			st.PotentiallyAllSet = callNode
		}
	}
}
