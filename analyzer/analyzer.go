// Package analyzer implements the Statement Transfer and the per-function
// driver (spec §4.8, §4.7 Function entry): it ties the Expression Walker,
// the External Reference Tracker, and the Scope & Branch Engine together
// into a single analyze_function entry point.
package analyzer

import (
	"fmt"

	"github.com/viant/tablelint/builtin"
	"github.com/viant/tablelint/item"
	"github.com/viant/tablelint/warning"
)

// Analyzer runs the table-field dataflow engine over one line-scope at a
// time. All per-run mutable state lives in the context created fresh for
// each AnalyzeFunction call (spec §5: no state is shared between
// function analyses).
type Analyzer struct {
	dialect   string
	catalogue *builtin.Catalogue
}

// New builds an Analyzer, loading the default built-in catalogue unless
// WithCatalogue overrides it.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{dialect: "v5.4.0"}
	for _, opt := range opts {
		opt(a)
	}
	if a.catalogue == nil {
		c, err := builtin.DefaultCatalogue()
		if err != nil {
			return nil, fmt.Errorf("analyzer: load default catalogue: %w", err)
		}
		a.catalogue = c
	}
	return a, nil
}

// AnalyzeFunction runs the engine over one function or file-level chunk
// and returns its warnings sorted by (line, column, code). A function
// containing Goto or Label anywhere yields no warnings (spec §7).
func (a *Analyzer) AnalyzeFunction(ls *item.LineScope) []warning.Warning {
	if ls == nil {
		panic("analyzer: AnalyzeFunction called with a nil line-scope")
	}
	return newContext(a, ls).run()
}
