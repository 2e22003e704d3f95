// Package builtin implements the transfer functions for the well-known
// table-manipulating standard-library functions (spec §4.5) and the
// catalogue of recognized standard-library names that drives is-pure-call
// detection (spec §6).
package builtin

import (
	_ "embed"
	"fmt"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var defaultCatalogueYAML []byte

// Entry is one recognized standard-library name.
type Entry struct {
	// Name is the qualified callee name, e.g. "table.insert" or "type".
	Name string `yaml:"name"`
	// Pure marks a call as side-effect-free on tracked tables — it
	// bypasses the External Reference Tracker's call-site invalidation
	// (spec §4.5's "introspection, math, string, io except io.lines").
	Pure bool `yaml:"pure"`
	// Introduced is the semver-formatted Lua dialect version this name
	// first appears in (empty means "always available").
	Introduced string `yaml:"introduced,omitempty"`
}

// Catalogue is the "max set" of built-in standard-library names (spec §6).
type Catalogue struct {
	entries map[string]Entry
}

// DefaultCatalogue returns the embedded default catalogue.
func DefaultCatalogue() (*Catalogue, error) {
	return ParseCatalogue(defaultCatalogueYAML)
}

// ParseCatalogue loads a catalogue from YAML (spec §2.2: catalogue is
// configurable the same way the teacher configures itself via yaml).
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var doc struct {
		Entries []Entry `yaml:"entries"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("builtin: parse catalogue: %w", err)
	}
	c := &Catalogue{entries: make(map[string]Entry, len(doc.Entries))}
	for _, e := range doc.Entries {
		c.entries[e.Name] = e
	}
	return c, nil
}

// Supports reports whether name is available under dialect (a semver
// string such as "v5.1.0"). Unknown names are not supported by
// definition — the caller treats that as "not a recognized built-in."
func (c *Catalogue) Supports(name, dialect string) bool {
	e, ok := c.entries[name]
	if !ok {
		return false
	}
	if e.Introduced == "" {
		return true
	}
	return semver.Compare(dialect, e.Introduced) >= 0
}

// IsPureCall reports whether name is a recognized, side-effect-free
// standard-library call under dialect (spec §4.5).
func (c *Catalogue) IsPureCall(name, dialect string) bool {
	if !c.Supports(name, dialect) {
		return false
	}
	return c.entries[name].Pure
}
