package scope

import (
	"github.com/viant/tablelint/table"
	"github.com/viant/tablelint/warning"
)

// CloseFrame implements the Do-block / If-branch / function-end half of
// spec §4.7: flush every local declared directly in f (end_table_variable
// each, deduplicated so a name redeclared within the same frame is only
// ended once, against whichever record is currently live under it), then
// restore any aliases that declaring those locals shadowed, in reverse
// (LIFO) declaration order — "the binding will restore on scope exit"
// (spec §4.8).
func CloseFrame(sink *warning.Sink, t Tables, f *Frame, outer table.OuterSuppressor) {
	seen := map[string]bool{}
	var names []string
	for _, n := range f.Declared {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	EndAll(sink, t, names, outer)

	for i := len(f.Shadows) - 1; i >= 0; i-- {
		ev := f.Shadows[i]
		if ev.Record.RestoreShadow(ev.Name) {
			t[ev.Name] = ev.Record
		}
	}
}
