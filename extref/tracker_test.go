package extref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/table"
)

func TestNew_ParamsAreAccessedAndMutated(t *testing.T) {
	ls := &item.LineScope{Params: []string{"t"}, Upvalues: item.NewUpvalueSets()}
	tr := New(ls)
	assert.True(t, tr.Accessed["t"])
	assert.True(t, tr.Mutated["t"])
	assert.False(t, tr.Set["t"])
}

func TestFoldBefore_FoldsClosureUpvalueSets(t *testing.T) {
	tr := New(&item.LineScope{Upvalues: item.NewUpvalueSets()})
	closure := &item.LineScope{Upvalues: item.UpvalueSets{
		Accessed: map[string]bool{"a": true},
		Set:      map[string]bool{"b": true},
		Mutated:  map[string]bool{"c": true},
	}}
	tr.FoldBefore([]*item.LineScope{closure})
	assert.True(t, tr.Accessed["a"])
	assert.True(t, tr.Set["b"])
	assert.True(t, tr.Mutated["c"])
}

func TestApplyCallSite_AccessedSetsBothMarkers(t *testing.T) {
	tr := New(&item.LineScope{Upvalues: item.NewUpvalueSets()})
	tr.Accessed["t"] = true
	st := table.New(1, "t")
	call := &item.Expr{Tag: item.Call}
	tr.ApplyCallSite(map[string]*table.State{"t": st}, call)
	assert.Equal(t, call, st.PotentiallyAllAccessed)
	assert.Equal(t, call, st.PotentiallyAllSet)
}

func TestApplyCallSite_MutatedOnlySetsPotentiallyAllSet(t *testing.T) {
	tr := New(&item.LineScope{Upvalues: item.NewUpvalueSets()})
	tr.Mutated["t"] = true
	st := table.New(1, "t")
	call := &item.Expr{Tag: item.Call}
	tr.ApplyCallSite(map[string]*table.State{"t": st}, call)
	assert.Nil(t, st.PotentiallyAllAccessed)
	assert.Equal(t, call, st.PotentiallyAllSet)
}

func TestApplyCallSite_UntrackedNameIsNoop(t *testing.T) {
	tr := New(&item.LineScope{Upvalues: item.NewUpvalueSets()})
	st := table.New(1, "t")
	tr.ApplyCallSite(map[string]*table.State{"t": st}, &item.Expr{})
	assert.Nil(t, st.PotentiallyAllSet)
	assert.Nil(t, st.PotentiallyAllAccessed)
}
