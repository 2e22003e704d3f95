package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/keynorm"
	"github.com/viant/tablelint/table"
	"github.com/viant/tablelint/warning"
)

// fixedEnv always answers the same loop-external verdict.
type fixedEnv bool

func (e fixedEnv) LoopExternal(string) bool { return bool(e) }

func numExpr(line int, n float64) *item.Expr {
	return &item.Expr{Tag: item.Number, Pos: item.Pos{Line: line}, Num: n}
}

func newLiteral(sink *warning.Sink, values ...float64) *table.State {
	st := table.New(1, "x")
	for i, v := range values {
		st.SetNormalizedKey(sink, "x", keynorm.NumberKey(float64(i+1)), numExpr(1, 0), numExpr(1, v), true, nil)
	}
	return st
}

func TestInsert_Append(t *testing.T) {
	sink := warning.NewSink()
	st := newLiteral(sink, 1, 2)
	Insert(sink, st, "x", []*item.Expr{numExpr(2, 3)}, numExpr(2, 0), fixedEnv(false))
	entry, ok := st.SetKeys[keynorm.NumberKey(3)]
	assert.True(t, ok)
	assert.Equal(t, 3.0, entry.ValueNode.Num)
}

func TestInsert_Positional(t *testing.T) {
	sink := warning.NewSink()
	st := newLiteral(sink, 1, 2)
	Insert(sink, st, "x", []*item.Expr{numExpr(2, 1), numExpr(2, 9)}, numExpr(2, 0), fixedEnv(false))
	entry, ok := st.SetKeys[keynorm.NumberKey(1)]
	assert.True(t, ok)
	assert.Equal(t, 9.0, entry.ValueNode.Num)
}

func TestInsert_LoopExternalGivesUp(t *testing.T) {
	sink := warning.NewSink()
	st := newLiteral(sink, 1)
	Insert(sink, st, "x", []*item.Expr{numExpr(2, 9)}, numExpr(2, 0), fixedEnv(true))
	assert.NotNil(t, st.PotentiallyAllSet)
}

func TestInsert_NonConstantIndexGivesUp(t *testing.T) {
	sink := warning.NewSink()
	st := newLiteral(sink, 1)
	variableIdx := &item.Expr{Tag: item.Id, Pos: item.Pos{Line: 2}, Binding: &item.VariableBinding{Name: "i"}}
	Insert(sink, st, "x", []*item.Expr{variableIdx, numExpr(2, 9)}, numExpr(2, 0), fixedEnv(false))
	assert.NotNil(t, st.PotentiallyAllSet)
}

// A variable-keyed insert whose value is Nil is conservatively ignored
// rather than collapsing the record to imprecise, mirroring table.State's
// own variable-key Nil exception (spec §4.2).
func TestInsert_NonConstantIndexWithNilValueIsNoop(t *testing.T) {
	sink := warning.NewSink()
	st := newLiteral(sink, 1)
	variableIdx := &item.Expr{Tag: item.Id, Pos: item.Pos{Line: 2}, Binding: &item.VariableBinding{Name: "i"}}
	nilValue := &item.Expr{Tag: item.Nil, Pos: item.Pos{Line: 2}}
	Insert(sink, st, "x", []*item.Expr{variableIdx, nilValue}, numExpr(2, 0), fixedEnv(false))
	assert.Nil(t, st.PotentiallyAllSet)
}

func TestRemove_LastElement(t *testing.T) {
	sink := warning.NewSink()
	st := newLiteral(sink, 1, 2, 3)
	Remove(sink, st, "x", nil, numExpr(2, 0), fixedEnv(false))
	entry, ok := st.SetKeys[keynorm.NumberKey(3)]
	assert.True(t, ok)
	assert.True(t, entry.IsNil)
	assert.Equal(t, 2.0, st.MaxNonNilIntegerKey())
}

func TestRemove_ByIndexShiftsFollowingKeysDown(t *testing.T) {
	sink := warning.NewSink()
	st := newLiteral(sink, 1, 2, 3)
	Remove(sink, st, "x", []*item.Expr{numExpr(2, 1)}, numExpr(2, 0), fixedEnv(false))
	entry1, ok := st.SetKeys[keynorm.NumberKey(1)]
	assert.True(t, ok)
	assert.Equal(t, 2.0, entry1.ValueNode.Num)
	entry2, ok := st.SetKeys[keynorm.NumberKey(2)]
	assert.True(t, ok)
	assert.Equal(t, 3.0, entry2.ValueNode.Num)
	entry3, ok := st.SetKeys[keynorm.NumberKey(3)]
	assert.True(t, ok)
	assert.True(t, entry3.IsNil)
}

func TestRemove_EmptyTableIsNoop(t *testing.T) {
	sink := warning.NewSink()
	st := table.New(1, "x")
	Remove(sink, st, "x", nil, numExpr(2, 0), fixedEnv(false))
	assert.Empty(t, st.SetKeys)
}

func TestConcat_MarksNumericSetKeysAccessed(t *testing.T) {
	sink := warning.NewSink()
	st := newLiteral(sink, 1, 2)
	Concat(st, "x", numExpr(2, 0), fixedEnv(false))
	assert.Len(t, st.AccessedKeys, 2)
}

func TestConcat_LoopExternalGivesUp(t *testing.T) {
	sink := warning.NewSink()
	st := newLiteral(sink, 1)
	Concat(st, "x", numExpr(2, 0), fixedEnv(true))
	assert.NotNil(t, st.PotentiallyAllAccessed)
}

func TestDispatch_ResolvesDottedAndBareNames(t *testing.T) {
	dotted := &item.Expr{Tag: item.Index,
		Base: &item.Expr{Tag: item.Id, Binding: &item.VariableBinding{Name: "table"}},
		Key:  &item.Expr{Tag: item.String, Str: "insert"},
	}
	assert.Equal(t, KindInsert, Dispatch(dotted))

	bare := &item.Expr{Tag: item.Id, Binding: &item.VariableBinding{Name: "pairs"}}
	assert.Equal(t, KindPairs, Dispatch(bare))

	unrelated := &item.Expr{Tag: item.Id, Binding: &item.VariableBinding{Name: "print"}}
	assert.Equal(t, KindNone, Dispatch(unrelated))
}
