package analyzer

import "github.com/viant/tablelint/builtin"

// Option configures an Analyzer, following the functional-options shape
// the teacher project uses throughout its own public API.
type Option func(*Analyzer)

// WithDialect sets the semver-formatted Lua dialect version used to gate
// catalogue entries (spec §4.5's table.move/pack/unpack/rawlen, which
// are dialect-introduced). Defaults to "v5.4.0".
func WithDialect(dialect string) Option {
	return func(a *Analyzer) {
		a.dialect = dialect
	}
}

// WithCatalogue overrides the recognized standard-library catalogue,
// e.g. to add a project's own pure helper functions.
func WithCatalogue(c *builtin.Catalogue) Option {
	return func(a *Analyzer) {
		a.catalogue = c
	}
}
