package builtin

import (
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/keynorm"
	"github.com/viant/tablelint/table"
	"github.com/viant/tablelint/warning"
)

// Env answers the one question the built-in models need from the Scope
// & Branch Engine: whether a tracked local "originated outside a
// containing loop" (spec §4.5's sole mechanism by which loops affect
// Table State).
type Env interface {
	LoopExternal(name string) bool
}

// imprecise reports whether st must already be treated as imprecise for
// table.insert/table.remove purposes (spec §4.5): a pending variable-key
// write, an unresolved maybe-set, or a loop-external origin.
func imprecise(st *table.State, owner string, env Env) bool {
	return st.PotentiallyAllSet != nil || len(st.MaybeSetKeys) > 0 || env.LoopExternal(owner)
}

func markRangeAccessed(st *table.State, keys map[keynorm.Key]*table.SetEntry, node *item.Expr, numericOnly bool) {
	for k, e := range keys {
		if e.IsNil {
			continue
		}
		if numericOnly {
			if _, ok := k.Numeric(); !ok {
				continue
			}
		}
		st.TouchAccessed(k, node)
	}
}

// Sort implements table.sort(t): a no-op, since sort fails on gaps, so a
// self-consistent key set is preserved (spec §4.5).
func Sort(st *table.State) {}

// Type implements type(t): a no-op.
func Type(st *table.State) {}

// Next implements next(t): always imprecise-reads.
func Next(st *table.State, callNode *item.Expr) {
	st.PotentiallyAllAccessed = callNode
}

// Concat implements table.concat(t[, ...]): marks each non-nil numeric
// definite set key as accessed, or collapses to potentially_all_accessed
// when already imprecise.
func Concat(st *table.State, owner string, callNode *item.Expr, env Env) {
	if st.PotentiallyAllSet != nil || env.LoopExternal(owner) {
		st.PotentiallyAllAccessed = callNode
		return
	}
	markRangeAccessed(st, st.SetKeys, callNode, true)
}

// Pairs implements pairs(t): like Concat but over all keys in both
// set_keys and maybe_set_keys.
func Pairs(st *table.State, owner string, callNode *item.Expr, env Env) {
	if st.PotentiallyAllSet != nil || env.LoopExternal(owner) {
		st.PotentiallyAllAccessed = callNode
		return
	}
	markRangeAccessed(st, st.SetKeys, callNode, false)
	markRangeAccessed(st, st.MaybeSetKeys, callNode, false)
}

// Ipairs implements ipairs(t): like Concat but including numeric keys in
// maybe_set_keys.
func Ipairs(st *table.State, owner string, callNode *item.Expr, env Env) {
	if st.PotentiallyAllSet != nil || env.LoopExternal(owner) {
		st.PotentiallyAllAccessed = callNode
		return
	}
	markRangeAccessed(st, st.SetKeys, callNode, true)
	markRangeAccessed(st, st.MaybeSetKeys, callNode, true)
}

// Insert implements table.insert(t, v) / table.insert(t, i, v).
// args excludes the table argument itself: either [v] or [i, v].
func Insert(sink *warning.Sink, st *table.State, owner string, args []*item.Expr, callNode *item.Expr, env Env) {
	if imprecise(st, owner, env) {
		st.PotentiallyAllSet = callNode
		return
	}
	if len(args) == 1 {
		idx := float64(1 + st.CountNonNilNumericSetKeys())
		st.SetNormalizedKey(sink, owner, keynorm.NumberKey(idx), callNode, args[0], false, nil)
		return
	}
	k, constant := keynorm.Normalize(args[0], true)
	if !constant {
		if !isNilValue(args[1]) {
			st.PotentiallyAllSet = callNode
		}
		return
	}
	st.SetNormalizedKey(sink, owner, k, args[0], args[1], false, nil)
}

// isNilValue mirrors table.State's variable-key Nil exception (spec
// §4.2): a variable-keyed write of Nil is conservatively ignored rather
// than collapsing the record to imprecise.
func isNilValue(e *item.Expr) bool {
	return e == nil || e.Tag == item.Nil
}

// Remove implements table.remove(t[, i]).
// args excludes the table argument itself: either [] or [i].
func Remove(sink *warning.Sink, st *table.State, owner string, args []*item.Expr, callNode *item.Expr, env Env) {
	var idxKey keynorm.Key
	hasIdx := len(args) > 0
	if hasIdx {
		k, constant := keynorm.Normalize(args[0], true)
		if !constant {
			st.PotentiallyAllSet = callNode
			st.PotentiallyAllAccessed = callNode
			return
		}
		idxKey = k
	}

	if imprecise(st, owner, env) {
		st.PotentiallyAllSet = callNode
		if hasIdx {
			st.TouchAccessed(idxKey, callNode)
		} else {
			st.PotentiallyAllAccessed = callNode
		}
		return
	}

	l := st.MaxNonNilIntegerKey()
	var i float64
	switch {
	case hasIdx:
		i, _ = idxKey.Numeric()
	case l == 0:
		i = 1
	default:
		i = l
	}

	st.TouchAccessed(keynorm.NumberKey(i), callNode)
	if i > l || l == 0 {
		return
	}
	for j := i; j < l; j++ {
		var value *item.Expr
		if next := st.SetKeys[keynorm.NumberKey(j+1)]; next != nil {
			value = next.ValueNode
		} else {
			value = item.NilExpr()
		}
		st.SetNormalizedKey(sink, owner, keynorm.NumberKey(j), callNode, value, false, nil)
		st.TouchAccessed(keynorm.NumberKey(j+1), callNode)
	}
	st.SetNormalizedKey(sink, owner, keynorm.NumberKey(l), callNode, item.NilExpr(), false, nil)
}
