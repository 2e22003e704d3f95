package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/keynorm"
	"github.com/viant/tablelint/table"
	"github.com/viant/tablelint/warning"
)

func keyAt(line int) *item.Expr { return &item.Expr{Tag: item.Number, Pos: item.Pos{Line: line}, Num: 1} }

func TestMerge_NoElseKeepsOnlyKeysSetOnAllPaths(t *testing.T) {
	sink := warning.NewSink()
	pre := Tables{"t": table.New(1, "t")}

	branchTables := Clone(pre)
	branchTables["t"].SetNormalizedKey(sink, "t", keynorm.NumberKey(1), keyAt(2), keyAt(2), false, nil)

	slot := NewMergeSlot()
	slot.AddBranch(branchTables, false)

	result := slot.Merge(sink, pre, nil)
	assert.False(t, result.AllReturn)
	_, inSet := result.Tables["t"].SetKeys[keynorm.NumberKey(1)]
	_, inMaybe := result.Tables["t"].MaybeSetKeys[keynorm.NumberKey(1)]
	assert.False(t, inSet)
	assert.True(t, inMaybe)
}

func TestMerge_KeySetOnEveryParticipantStaysDefinite(t *testing.T) {
	sink := warning.NewSink()
	pre := Tables{"t": table.New(1, "t")}
	pre["t"].SetNormalizedKey(sink, "t", keynorm.NumberKey(1), keyAt(1), keyAt(1), true, nil)

	branchTables := Clone(pre)

	slot := NewMergeSlot()
	slot.HasElse = true
	slot.AddBranch(branchTables, false)

	result := slot.Merge(sink, pre, nil)
	_, inSet := result.Tables["t"].SetKeys[keynorm.NumberKey(1)]
	assert.True(t, inSet)
}

func TestMerge_AllBranchesReturnWithElseMarksAllReturn(t *testing.T) {
	sink := warning.NewSink()
	pre := Tables{}
	slot := NewMergeSlot()
	slot.HasElse = true
	slot.AddBranch(Tables{}, true)
	slot.AddBranch(Tables{}, true)
	result := slot.Merge(sink, pre, nil)
	assert.True(t, result.AllReturn)
}

func TestMerge_AlwaysReturningBranchContributesNoSets(t *testing.T) {
	sink := warning.NewSink()
	pre := Tables{"t": table.New(1, "t")}

	returning := Clone(pre)
	returning["t"].SetNormalizedKey(sink, "t", keynorm.NumberKey(1), keyAt(2), keyAt(2), false, nil)

	slot := NewMergeSlot()
	slot.AddBranch(returning, true)

	result := slot.Merge(sink, pre, nil)
	// No normal branch and no else: effective == [pre], which never saw
	// key 1, so it must not appear at all, and no warning should fire for
	// it either (its state never flowed forward to be evaluated).
	_, inSet := result.Tables["t"].SetKeys[keynorm.NumberKey(1)]
	_, inMaybe := result.Tables["t"].MaybeSetKeys[keynorm.NumberKey(1)]
	assert.False(t, inSet)
	assert.False(t, inMaybe)
	assert.Empty(t, sink.Flush())
}

func TestMerge_DivergentAliasesWipeTheTable(t *testing.T) {
	sink := warning.NewSink()
	rec := table.New(1, "t")
	pre := Tables{"t": rec}

	// No else: effective becomes [branchA, pre] — branchA diverges from
	// pre by gaining alias "u", so the general merge path must wipe "t"
	// rather than guess which alias set is authoritative.
	branchA := Clone(pre)
	branchA["t"].AddAlias("u")

	slot := NewMergeSlot()
	slot.AddBranch(branchA, false)

	result := slot.Merge(sink, pre, nil)
	_, tracked := result.Tables["t"]
	assert.False(t, tracked)
}

func TestEndAll_FlushesDeclaredLocals(t *testing.T) {
	sink := warning.NewSink()
	tables := Tables{"t": table.New(1, "t")}
	tables["t"].SetNormalizedKey(sink, "t", keynorm.NumberKey(1), keyAt(1), keyAt(1), false, nil)
	EndAll(sink, tables, []string{"t"}, nil)
	ws := sink.Flush()
	assert.Len(t, ws, 1)
	_, tracked := tables["t"]
	assert.False(t, tracked)
}
