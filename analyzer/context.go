package analyzer

import (
	"fmt"

	"github.com/viant/tablelint/extref"
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/keynorm"
	"github.com/viant/tablelint/scope"
	"github.com/viant/tablelint/table"
	"github.com/viant/tablelint/walker"
	"github.com/viant/tablelint/warning"
)

// context holds the mutable state of one function analysis (spec §5):
// current-tables map, scope stack, external-reference sets, and the
// record-ID counter. It is created fresh for every AnalyzeFunction call
// and discarded afterward.
type context struct {
	a       *Analyzer
	ls      *item.LineScope
	sink    *warning.Sink
	tables  scope.Tables
	stack   *scope.Stack
	tracker *extref.Tracker

	// outerSnapshots is the stack of pre-branch table maps for every
	// If currently open, innermost last — used to build the §4.2 W315
	// "outer branching scope already holds this key at this line"
	// suppression for direct field-set statements processed inside a
	// branch body.
	outerSnapshots []scope.Tables

	nextID uint64
}

func newContext(a *Analyzer, ls *item.LineScope) *context {
	return &context{
		a:       a,
		ls:      ls,
		sink:    warning.NewSink(),
		tables:  scope.Tables{},
		stack:   scope.NewStack(),
		tracker: extref.New(ls),
	}
}

func (c *context) nextRecordID() uint64 {
	c.nextID++
	return c.nextID
}

func (c *context) newWalker(tables scope.Tables) *walker.Walker {
	return &walker.Walker{
		Sink:      c.sink,
		Tables:    tables,
		Tracker:   c.tracker,
		Env:       c.stack,
		Catalogue: c.a.catalogue,
		Dialect:   c.a.dialect,
	}
}

// outerFor builds the OuterSuppressor for a direct set_key against name,
// rooted in the nearest enclosing If's pre-branch snapshot, or nil
// outside any branch.
func (c *context) outerFor(name string) table.OuterSuppressor {
	if len(c.outerSnapshots) == 0 {
		return nil
	}
	pre := c.outerSnapshots[len(c.outerSnapshots)-1]
	return func(k keynorm.Key, line int) bool {
		outerSt, ok := pre[name]
		if !ok {
			return false
		}
		if e, ok := outerSt.SetKeys[k]; ok && e.KeyNode != nil && e.KeyNode.Pos.Line == line {
			return true
		}
		if e, ok := outerSt.MaybeSetKeys[k]; ok && e.KeyNode != nil && e.KeyNode.Pos.Line == line {
			return true
		}
		return false
	}
}

// run drives the whole function analysis (spec §4.7 Function entry).
func (c *context) run() []warning.Warning {
	if hasGotoOrLabel(c.ls.Items) {
		return nil
	}
	for _, p := range c.ls.Params {
		c.stack.DeclareLocal(p)
	}
	c.processBlock(c.ls.Items)
	f := c.stack.Pop()
	// Apply the external-reference rule before the root frame's locals are
	// ended, so a record reachable from a nested closure is wiped rather
	// than flushed with warnings.
	for name, st := range c.tables {
		if c.externallyReferenced(st) {
			for _, alias := range st.AliasNames() {
				delete(c.tables, alias)
			}
			delete(c.tables, name)
		}
	}
	scope.CloseFrame(c.sink, c.tables, f, nil)
	c.finalFlush()
	return c.sink.Flush()
}

// finalFlush implements the external-reference rule at function end
// (spec §4.7): a record any of whose aliases was accessed, set, or
// mutated by a nested closure is wiped without warnings (it may still
// escape through that closure); everything else is ended normally.
func (c *context) finalFlush() {
	for name, st := range c.tables {
		if _, ok := c.tables[name]; !ok {
			continue // already removed as another alias's sibling
		}
		if c.externallyReferenced(st) {
			for _, alias := range st.AliasNames() {
				delete(c.tables, alias)
			}
			delete(c.tables, name)
			continue
		}
		if st.EndVariable(c.sink, name, nil) {
			for _, alias := range st.AliasNames() {
				delete(c.tables, alias)
			}
			delete(c.tables, name)
		}
	}
}

func (c *context) externallyReferenced(st *table.State) bool {
	for _, alias := range st.AliasNames() {
		if c.tracker.Accessed[alias] || c.tracker.Set[alias] || c.tracker.Mutated[alias] {
			return true
		}
	}
	return false
}

func hasGotoOrLabel(items []*item.Item) bool {
	for _, it := range items {
		if it.Tag != item.Control {
			continue
		}
		switch it.ControlBlockType {
		case item.Goto, item.Label:
			return true
		case item.If:
			for _, b := range it.Branches {
				if hasGotoOrLabel(b.Body) {
					return true
				}
			}
		case item.Do, item.While, item.Fornum, item.Forin, item.Repeat:
			if hasGotoOrLabel(it.Body) {
				return true
			}
		}
	}
	return false
}

// processBlock runs the Statement Transfer over items in order, folding
// each statement's nested closures into the External Reference Tracker
// before processing it (spec §4.6), and stops at the first Return (dead
// code after a return is not analyzed).
func (c *context) processBlock(items []*item.Item) (definitelyReturns bool) {
	for i, it := range items {
		c.tracker.FoldBefore(it.NestedClosures())
		switch it.Tag {
		case item.Local:
			c.transferAssign(it, true)
		case item.Set:
			c.transferAssign(it, false)
		case item.Eval:
			c.newWalker(c.tables).WalkExpr(it.Node)
		case item.Control:
			if c.processControl(it) {
				return true
			}
		default:
			panic(fmt.Sprintf("analyzer: item %d of block has unknown tag %v", i, it.Tag))
		}
	}
	return false
}

func (c *context) processControl(it *item.Item) bool {
	switch it.ControlBlockType {
	case item.Return:
		return true
	case item.Do:
		c.stack.Push(false)
		c.processBlock(it.Body)
		f := c.stack.Pop()
		scope.CloseFrame(c.sink, c.tables, f, nil)
		return false
	case item.While, item.Fornum, item.Forin, item.Repeat:
		c.processLoop(it)
		return false
	case item.If:
		return c.processIf(it)
	case item.Label, item.Goto: // unreachable once hasGotoOrLabel has gated the run.
		return false
	default:
		panic(fmt.Sprintf("analyzer: control item has unknown block type %v", it.ControlBlockType))
	}
}

func (c *context) processLoop(it *item.Item) {
	w := c.newWalker(c.tables)
	for _, cond := range it.Cond {
		w.WalkExpr(cond)
	}
	saved := c.tables
	c.tables = scope.Clone(saved)
	c.stack.Push(true)
	c.processBlock(it.Body)
	c.stack.Pop()
	// Discard the loop scope's accumulated state entirely (spec §4.7):
	// conservative, but avoids false positives from a body that may run
	// zero or many times.
	c.tables = saved
}

func (c *context) processIf(it *item.Item) (definitelyReturns bool) {
	pre := scope.Clone(c.tables)
	slot := scope.NewMergeSlot()
	c.outerSnapshots = append(c.outerSnapshots, pre)

	for _, br := range it.Branches {
		if br.IsElse {
			slot.HasElse = true
		}
		if br.Cond != nil {
			c.newWalker(pre).WalkExpr(br.Cond)
		}

		saved := c.tables
		c.tables = scope.Clone(pre)
		c.stack.Push(false)
		branchReturns := c.processBlock(br.Body)
		f := c.stack.Pop()
		scope.CloseFrame(c.sink, c.tables, f, nil)
		slot.AddBranch(c.tables, branchReturns)
		c.tables = saved
	}

	c.outerSnapshots = c.outerSnapshots[:len(c.outerSnapshots)-1]

	result := slot.Merge(c.sink, pre, nil)
	if result.AllReturn {
		return true
	}
	c.tables = result.Tables
	return false
}
