// Package keynorm canonicalizes table-field key expressions into a
// comparable Key, implementing spec §4.1.
package keynorm

import (
	"strconv"
	"strings"

	"github.com/viant/tablelint/item"
)

// Key is the canonical, comparable form of a constant table-field key.
// Two Keys compare equal iff the source keys are the same field under
// Lua's own table-key coercion rules for this analyzer's purposes.
type Key struct {
	numeric bool
	num     float64
	str     string
}

// Numeric reports whether this is a numeric key, and its value.
func (k Key) Numeric() (float64, bool) { return k.num, k.numeric }

// String renders the key for warning messages: the numeric value for
// numeric keys, the raw text for string keys (spec §4.2's
// "W315 emission policy").
func (k Key) String() string {
	if k.numeric {
		return formatNumber(k.num)
	}
	return k.str
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// NumberKey builds a canonical numeric key directly, used by built-in
// models that synthesize positional keys (spec §4.5).
func NumberKey(n float64) Key { return Key{numeric: true, num: n} }

// Normalize canonicalizes a key expression node.
//
// forPositionalOp must be true when normalizing the index argument of
// table.insert/table.remove: in that context alone, a numeric-literal
// string is coerced to its numeric form, matching the language's runtime
// coercion for positional table operations (spec §4.1). Everywhere else
// a numeric-looking string key stays a string key.
//
// The second return value is false when the key is not a compile-time
// constant (anything but a Number or String node), meaning the caller
// must fall back to the potentially-all-set/accessed marker.
func Normalize(key *item.Expr, forPositionalOp bool) (Key, bool) {
	if key == nil {
		return Key{}, false
	}
	switch key.Tag {
	case item.Number:
		return Key{numeric: true, num: key.Num}, true
	case item.String:
		if forPositionalOp {
			if n, ok := parseFiniteNumber(key.Str); ok {
				return Key{numeric: true, num: n}, true
			}
		}
		return Key{str: key.Str}, true
	default:
		return Key{}, false
	}
}

// parseFiniteNumber reports whether s round-trips to a finite numeric
// value, the check spec §4.1 and §2's Key Normalizer both describe as
// "numeric strings that round-trip to numbers."
func parseFiniteNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if isInfOrNaN(n) {
		return 0, false
	}
	return n, true
}

func isInfOrNaN(n float64) bool {
	return n != n || n > maxFinite || n < -maxFinite
}

const maxFinite = 1.7976931348623157e+308
