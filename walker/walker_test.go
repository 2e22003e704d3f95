package walker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/tablelint/extref"
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/keynorm"
	"github.com/viant/tablelint/table"
	"github.com/viant/tablelint/warning"
)

// fixedEnv always answers the same loop-external verdict.
type fixedEnv bool

func (e fixedEnv) LoopExternal(string) bool { return bool(e) }

func numAt(line int, n float64) *item.Expr {
	return &item.Expr{Tag: item.Number, Pos: item.Pos{Line: line}, Num: n}
}

func strAt(line int, s string) *item.Expr {
	return &item.Expr{Tag: item.String, Pos: item.Pos{Line: line}, Str: s}
}

func idAt(line int, name string) *item.Expr {
	return &item.Expr{Tag: item.Id, Pos: item.Pos{Line: line}, Binding: &item.VariableBinding{Name: name}}
}

func indexAt(line int, base, key *item.Expr) *item.Expr {
	return &item.Expr{Tag: item.Index, Pos: item.Pos{Line: line}, Base: base, Key: key}
}

// calleeAt resolves a dotted or bare builtin name into a Call callee
// expression shape: "table.remove" -> Index(Id("table"), String("remove")).
func calleeAt(line int, name string) *item.Expr {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return indexAt(line, idAt(line, name[:i]), strAt(line, name[i+1:]))
	}
	return idAt(line, name)
}

func callAt(line int, name string, args ...*item.Expr) *item.Expr {
	return &item.Expr{Tag: item.Call, Pos: item.Pos{Line: line}, Callee: calleeAt(line, name), Args: args}
}

func newTracker() *extref.Tracker {
	return &extref.Tracker{Accessed: map[string]bool{}, Set: map[string]bool{}, Mutated: map[string]bool{}}
}

func newLiteral(sink *warning.Sink, name string, values ...float64) *table.State {
	st := table.New(1, name)
	for i, v := range values {
		st.SetNormalizedKey(sink, name, keynorm.NumberKey(float64(i+1)), numAt(1, 0), numAt(1, v), true, nil)
	}
	return st
}

func newWalker(tables map[string]*table.State) (*Walker, *warning.Sink) {
	sink := warning.NewSink()
	return &Walker{
		Sink:    sink,
		Tables:  tables,
		Tracker: newTracker(),
		Env:     fixedEnv(false),
	}, sink
}

// A bare Id appearing anywhere outside the exceptions below (a plain
// call argument, here) escapes the table: it is wiped with no W315,
// even though its only set key was never read.
func TestWalkExpr_BareIdEscapesAndWipesTrackedTable(t *testing.T) {
	st := newLiteral(warning.NewSink(), "t", 1)
	w, sink := newWalker(map[string]*table.State{"t": st})

	w.WalkExpr(callAt(2, "print", idAt(2, "t")))

	_, tracked := w.Tables["t"]
	assert.False(t, tracked)
	assert.Empty(t, sink.Flush())
}

// A bare Id used as a table-literal child does not escape (spec §4.3):
// building {t, x = t} around an already-tracked t leaves it live.
func TestWalkExpr_TableLiteralChildDoesNotWipeBareId(t *testing.T) {
	st := newLiteral(warning.NewSink(), "t", 1)
	w, _ := newWalker(map[string]*table.State{"t": st})

	lit := &item.Expr{Tag: item.Table, Pos: item.Pos{Line: 3}, Fields: []item.Field{
		{Value: idAt(3, "t")},
		{Key: strAt(3, "x"), Value: idAt(3, "t")},
	}}
	w.WalkExpr(lit)

	_, tracked := w.Tables["t"]
	assert.True(t, tracked)
}

// A built-in's first argument is read by name, not walked as a plain
// expression, so a bare Id there does not escape either.
func TestWalkExpr_BuiltinFirstArgDoesNotWipe(t *testing.T) {
	st := newLiteral(warning.NewSink(), "t", 1, 2, 3)
	w, _ := newWalker(map[string]*table.State{"t": st})

	w.WalkExpr(callAt(4, "table.sort", idAt(4, "t")))

	_, tracked := w.Tables["t"]
	assert.True(t, tracked)
}

// table.sort's table argument still has its own accesses registered
// when it is not a bare identifier (e.g. a nested index expression).
func TestWalkExpr_BuiltinFirstArgWalkedWhenNotBareId(t *testing.T) {
	outer := newLiteral(warning.NewSink(), "x", 1, 2)
	st := table.New(2, "y")
	w, sink := newWalker(map[string]*table.State{"x": outer, "y": st})

	w.WalkExpr(callAt(5, "table.sort", indexAt(5, idAt(5, "x"), numAt(5, 1))))

	ws := sink.Flush()
	for _, warn := range ws {
		assert.NotEqual(t, warning.UnsetAccess, warn.Code)
	}
}

// Short-circuit operands are the third escape exception (spec §4.3): a
// bare Id operand of And/Or stays live because the operator only
// selects one value, it never passes the table to unknown code.
func TestWalkExpr_ShortCircuitOperandDoesNotWipeBareId(t *testing.T) {
	st := newLiteral(warning.NewSink(), "t", 1)
	w, sink := newWalker(map[string]*table.State{"t": st})

	and := &item.Expr{Tag: item.And, Pos: item.Pos{Line: 6}, Left: idAt(6, "t"), Right: callAt(6, "cond")}
	w.WalkExpr(and)

	_, tracked := w.Tables["t"]
	assert.True(t, tracked)
	assert.Empty(t, sink.Flush())
}

// A non-Id short-circuit operand is still walked normally: an index
// access on the right-hand side of "or" registers against the table.
func TestWalkExpr_ShortCircuitNonIdOperandWalkedNormally(t *testing.T) {
	st := table.New(1, "t")
	w, sink := newWalker(map[string]*table.State{"t": st})

	or := &item.Expr{Tag: item.Or, Pos: item.Pos{Line: 7},
		Left:  callAt(7, "cond"),
		Right: indexAt(7, idAt(7, "t"), strAt(7, "missing")),
	}
	w.WalkExpr(or)

	ws := sink.Flush()
	assert.Len(t, ws, 1)
	assert.Equal(t, warning.UnsetAccess, ws[0].Code)
	assert.Equal(t, "missing", ws[0].Field)
}

// When both operands of And/Or are bare tracked Ids, neither escapes:
// each operand gets the short-circuit exception independently.
func TestWalkExpr_ShortCircuitBothOperandsTracked(t *testing.T) {
	left := newLiteral(warning.NewSink(), "t", 1)
	right := newLiteral(warning.NewSink(), "u", 1)
	w, _ := newWalker(map[string]*table.State{"t": left, "u": right})

	and := &item.Expr{Tag: item.And, Pos: item.Pos{Line: 8}, Left: idAt(8, "t"), Right: idAt(8, "u")}
	w.WalkExpr(and)

	_, tTracked := w.Tables["t"]
	_, uTracked := w.Tables["u"]
	assert.True(t, tTracked)
	assert.True(t, uTracked)
}

// A method-call receiver (t:insert(1)) is carried in Base, not Callee;
// visitInvoke must collapse the receiver to imprecise reads/writes
// rather than silently ignoring it.
func TestWalkExpr_InvokeReceiverBecomesImprecise(t *testing.T) {
	st := newLiteral(warning.NewSink(), "t", 1)
	w, _ := newWalker(map[string]*table.State{"t": st})

	invoke := &item.Expr{Tag: item.Invoke, Pos: item.Pos{Line: 11},
		Base: idAt(11, "t"), Method: "insert", Args: []*item.Expr{numAt(11, 9)},
	}
	w.WalkExpr(invoke)

	assert.NotNil(t, st.PotentiallyAllAccessed)
	assert.NotNil(t, st.PotentiallyAllSet)
}

// Indexing a tracked table with an unset key produces W325; indexing it
// with a set key produces nothing.
func TestWalkExpr_IndexAccessReportsUnsetKey(t *testing.T) {
	st := newLiteral(warning.NewSink(), "t", 1)
	w, sink := newWalker(map[string]*table.State{"t": st})

	w.WalkExpr(indexAt(9, idAt(9, "t"), numAt(9, 1)))
	assert.Empty(t, sink.Flush())

	w.WalkExpr(indexAt(10, idAt(10, "t"), numAt(10, 2)))
	ws := sink.Flush()
	assert.Len(t, ws, 1)
	assert.Equal(t, warning.UnsetAccess, ws[0].Code)
}
