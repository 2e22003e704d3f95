// Package walker implements the Expression Walker (spec §4.3) and the
// aliasing discovery it feeds (spec §4.4): the recursive visitor that
// turns expression trees into access_key/set_key calls, escapes, and
// built-in transfer-function dispatch.
package walker

import (
	"github.com/viant/tablelint/builtin"
	"github.com/viant/tablelint/extref"
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/table"
	"github.com/viant/tablelint/warning"
)

// Walker carries the collaborators the Expression Walker needs to do
// its work: the sink, the live table map, the external-reference
// tracker for the function being analyzed, the loop-boundary oracle,
// and the built-in catalogue for the is-pure-call bypass.
type Walker struct {
	Sink      *warning.Sink
	Tables    map[string]*table.State
	Tracker   *extref.Tracker
	Env       builtin.Env
	Catalogue *builtin.Catalogue
	Dialect   string
}

// WalkExpr recursively visits e, dispatching access_key, escapes, and
// built-in models as it goes (spec §4.3).
func (w *Walker) WalkExpr(e *item.Expr) {
	if e == nil {
		return
	}
	switch e.Tag {
	case item.Number, item.String, item.Nil, item.Dots:
		// leaves; nothing to do.
	case item.Function:
		// Closures are folded into the External Reference Tracker at the
		// statement level (extref.FoldBefore); their bodies are analyzed
		// as independent top-level scopes, never descended into here.
	case item.Id:
		w.visitID(e)
	case item.Index:
		w.visitIndex(e)
	case item.Table:
		w.visitTableLiteral(e)
	case item.Call:
		w.visitCall(e)
	case item.Invoke:
		w.visitInvoke(e)
	case item.And, item.Or:
		w.walkShortCircuitOperand(e.Left)
		w.walkShortCircuitOperand(e.Right)
	}
}

// walkShortCircuitOperand visits one operand of And/Or: a bare Id
// operand that resolves to a tracked table stays live (spec §4.3: the
// operator merely selects one value, it does not escape the table),
// exactly like a table-literal child (walkTableChild) or a built-in's
// first argument (applyBuiltin). Every other operand shape is walked
// normally.
func (w *Walker) walkShortCircuitOperand(e *item.Expr) {
	if name, ok := BareIDName(e); ok {
		if _, tracked := w.Tables[name]; tracked {
			return
		}
	}
	w.WalkExpr(e)
}

// BareIDName returns the resolved name of a bare Id expression, reused
// by the Statement Transfer driver for its own alias-discovery checks.
func BareIDName(e *item.Expr) (string, bool) {
	if e == nil || e.Tag != item.Id || e.Binding == nil {
		return "", false
	}
	return e.Binding.Name, true
}

func (w *Walker) visitID(e *item.Expr) {
	name, ok := BareIDName(e)
	if !ok {
		return
	}
	if _, tracked := w.Tables[name]; tracked {
		w.wipe(name)
	}
}

// wipe drops name's record and every alias that shares it, with no
// warnings (spec §4.2 wipe).
func (w *Walker) wipe(name string) {
	st, ok := w.Tables[name]
	if !ok {
		return
	}
	for _, alias := range st.AliasNames() {
		delete(w.Tables, alias)
	}
	delete(w.Tables, name)
}

func (w *Walker) visitIndex(e *item.Expr) {
	if name, ok := BareIDName(e.Base); ok {
		if st, tracked := w.Tables[name]; tracked {
			w.WalkExpr(e.Key)
			st.AccessKey(w.Sink, name, e.Key)
			return
		}
	}
	w.WalkExpr(e.Base)
	w.WalkExpr(e.Key)
}

// visitTableLiteral walks a table literal's children: a bare Id child
// (key or value) refers to a table that "stays alive" rather than
// escaping (spec §4.3); every other child shape is walked normally.
func (w *Walker) visitTableLiteral(e *item.Expr) {
	for _, f := range e.Fields {
		w.walkTableChild(f.Key)
		w.walkTableChild(f.Value)
	}
}

func (w *Walker) walkTableChild(e *item.Expr) {
	if e == nil || e.Tag == item.Id {
		return
	}
	w.WalkExpr(e)
}

func (w *Walker) visitCall(e *item.Expr) {
	kind := builtin.Dispatch(e.Callee)
	rest := e.Args
	if kind != builtin.KindNone && len(e.Args) > 0 {
		w.applyBuiltin(kind, e.Args[0], e.Args[1:], e)
		rest = e.Args[1:]
	} else {
		w.WalkExpr(e.Callee)
	}
	for _, a := range rest {
		w.WalkExpr(a)
	}
	w.invalidateIfNotPure(e.Callee, e)
}

func (w *Walker) visitInvoke(e *item.Expr) {
	if name, ok := BareIDName(e.Base); ok {
		if st, tracked := w.Tables[name]; tracked {
			st.PotentiallyAllAccessed = e
			st.PotentiallyAllSet = e
		}
	} else {
		w.WalkExpr(e.Base)
	}
	for _, a := range e.Args {
		w.WalkExpr(a)
	}
	w.Tracker.ApplyCallSite(w.Tables, e)
}

func (w *Walker) invalidateIfNotPure(callee *item.Expr, callNode *item.Expr) {
	name, _ := builtin.QualifiedName(callee)
	if w.Catalogue != nil && w.Catalogue.IsPureCall(name, w.Dialect) {
		return
	}
	w.Tracker.ApplyCallSite(w.Tables, callNode)
}

func (w *Walker) applyBuiltin(kind builtin.Kind, tableArg *item.Expr, rest []*item.Expr, callNode *item.Expr) {
	name, ok := BareIDName(tableArg)
	if !ok {
		// Not a bare table identifier (e.g. table.sort(x[2])): this is not
		// really a model invocation on a tracked table, just an ordinary
		// expression in argument position. Walk it so its own accesses
		// still register (spec §8 scenario 8).
		w.WalkExpr(tableArg)
		return
	}
	st, tracked := w.Tables[name]
	if !tracked {
		return
	}
	switch kind {
	case builtin.KindSort:
		builtin.Sort(st)
	case builtin.KindType:
		builtin.Type(st)
	case builtin.KindConcat:
		builtin.Concat(st, name, callNode, w.Env)
	case builtin.KindPairs:
		builtin.Pairs(st, name, callNode, w.Env)
	case builtin.KindIpairs:
		builtin.Ipairs(st, name, callNode, w.Env)
	case builtin.KindNext:
		builtin.Next(st, callNode)
	case builtin.KindInsert:
		builtin.Insert(w.Sink, st, name, rest, callNode, w.Env)
	case builtin.KindRemove:
		builtin.Remove(w.Sink, st, name, rest, callNode, w.Env)
	}
}
