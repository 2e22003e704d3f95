package analyzer

import (
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/keynorm"
	"github.com/viant/tablelint/scope"
	"github.com/viant/tablelint/table"
	"github.com/viant/tablelint/walker"
)

// transferAssign implements spec §4.8 Local/Set: rhs expressions are
// walked first (for accesses, alias discovery, and call side effects),
// then each lhs is processed in order.
func (c *context) transferAssign(it *item.Item, isLocal bool) {
	w := c.newWalker(c.tables)

	aliasRHS := make([]*item.Expr, len(it.Lhs))
	for i, lhs := range it.Lhs {
		var rhs *item.Expr
		if i < len(it.Rhs) {
			rhs = it.Rhs[i]
		}
		if lhs.Tag == item.Id && rhs != nil {
			if name, ok := walker.BareIDName(rhs); ok {
				if _, tracked := c.tables[name]; tracked {
					aliasRHS[i] = rhs
					continue
				}
			}
		}
		w.WalkExpr(rhs)
	}
	for _, extra := range extraRHS(it) {
		w.WalkExpr(extra)
	}

	for i, lhs := range it.Lhs {
		rhs := rhsFor(it, i)
		switch lhs.Tag {
		case item.Id:
			c.transferIDTarget(lhs.Binding.Name, rhs, aliasRHS[i], isLocal)
		case item.Index:
			c.transferIndexTarget(w, lhs, rhs)
		}
	}
}

// extraRHS returns the rhs expressions beyond the lhs count that are not
// a reused multi-return tail (spec §4.8 imbalanced multi-assignment).
func extraRHS(it *item.Item) []*item.Expr {
	if len(it.Rhs) <= len(it.Lhs) {
		return nil
	}
	return it.Rhs[len(it.Lhs):]
}

func isMultiReturn(e *item.Expr) bool {
	return e != nil && (e.Tag == item.Call || e.Tag == item.Invoke)
}

// rhsFor resolves the effective rhs value for lhs position i: the
// matching rhs if present, the reused last rhs if it is a call/invoke
// (potential multi-return), else Nil (spec §4.8).
func rhsFor(it *item.Item, i int) *item.Expr {
	if i < len(it.Rhs) {
		return it.Rhs[i]
	}
	if len(it.Rhs) > 0 {
		last := it.Rhs[len(it.Rhs)-1]
		if isMultiReturn(last) {
			return last
		}
	}
	return item.NilExpr()
}

func (c *context) transferIDTarget(name string, rhs, aliasCandidate *item.Expr, isLocal bool) {
	if isLocal {
		if existing, ok := c.tables[name]; ok {
			existing.ShadowAlias(name)
			delete(c.tables, name)
			c.stack.RecordShadow(name, existing)
		}
		c.stack.DeclareLocal(name)
	} else if existing, ok := c.tables[name]; ok {
		if !sameRecordTarget(existing, aliasCandidate, c.tables) {
			if existing.EndVariable(c.sink, name, c.outerFor(name)) {
				for _, alias := range existing.AliasNames() {
					delete(c.tables, alias)
				}
			}
			delete(c.tables, name)
		}
	}

	if aliasCandidate != nil {
		if aname, ok := walker.BareIDName(aliasCandidate); ok {
			if rec, tracked := c.tables[aname]; tracked {
				rec.AddAlias(name)
				c.tables[name] = rec
			}
		}
		return
	}

	if rhs != nil && rhs.Tag == item.Table {
		rec := table.New(c.nextRecordID(), name)
		c.tables[name] = rec
		c.initTableLiteral(rec, rhs, name)
		return
	}

	delete(c.tables, name)
}

// sameRecordTarget reports whether a Set statement's rhs is exactly the
// record already bound to name (a no-op self-assignment that must not
// trigger end_table_variable's overwrite flush).
func sameRecordTarget(existing *table.State, aliasCandidate *item.Expr, tables scope.Tables) bool {
	if aliasCandidate == nil {
		return false
	}
	name, ok := walker.BareIDName(aliasCandidate)
	if !ok {
		return false
	}
	rec, tracked := tables[name]
	return tracked && rec == existing
}

func (c *context) transferIndexTarget(w *walker.Walker, lhs, rhs *item.Expr) {
	if name, ok := walker.BareIDName(lhs.Base); ok {
		if st, tracked := c.tables[name]; tracked {
			w.WalkExpr(lhs.Key)
			st.SetKey(c.sink, name, lhs.Key, rhs, false, c.outerFor(name))
			return
		}
	}
	w.WalkExpr(lhs.Base)
	w.WalkExpr(lhs.Key)
}

// initTableLiteral implements spec §4.8's table-literal initialization
// of a freshly created record.
func (c *context) initTableLiteral(rec *table.State, lit *item.Expr, owner string) {
	idx := 0
	for _, f := range lit.Fields {
		if f.Key != nil {
			rec.SetKey(c.sink, owner, f.Key, f.Value, true, nil)
			continue
		}
		if f.Value != nil && (f.Value.Tag == item.Dots || f.Value.Tag == item.Call || f.Value.Tag == item.Invoke) {
			rec.PotentiallyAllSet = f.Value
			break
		}
		idx++
		if f.Value == nil || f.Value.Tag == item.Nil {
			continue
		}
		rec.SetNormalizedKey(c.sink, owner, keynorm.NumberKey(float64(idx)), f.Value, f.Value, true, nil)
	}
}
