package builtin

import "github.com/viant/tablelint/item"

// QualifiedName resolves a Call/Invoke callee expression to the dotted
// name the catalogue indexes by ("table.insert", "pairs", ...), for the
// two shapes a built-in reference can take (spec §4.5): a bare
// identifier, or a single-level dotted index of an identifier.
func QualifiedName(callee *item.Expr) (string, bool) {
	if callee == nil {
		return "", false
	}
	switch callee.Tag {
	case item.Id:
		if callee.Binding == nil {
			return "", false
		}
		return callee.Binding.Name, true
	case item.Index:
		if callee.Base == nil || callee.Base.Tag != item.Id || callee.Base.Binding == nil {
			return "", false
		}
		if callee.Key == nil || callee.Key.Tag != item.String {
			return "", false
		}
		return callee.Base.Binding.Name + "." + callee.Key.Str, true
	default:
		return "", false
	}
}

// Kind enumerates the built-in transfer functions dispatch resolves to.
type Kind int

const (
	KindNone Kind = iota
	KindInsert
	KindRemove
	KindSort
	KindConcat
	KindPairs
	KindIpairs
	KindNext
	KindType
)

// kindsByName is the fixed subset of the catalogue (spec §4.5) that has
// an actual transfer function — the rest of the catalogue exists only to
// answer IsPureCall.
var kindsByName = map[string]Kind{
	"table.insert": KindInsert,
	"table.remove": KindRemove,
	"table.sort":   KindSort,
	"table.concat": KindConcat,
	"pairs":        KindPairs,
	"ipairs":       KindIpairs,
	"next":         KindNext,
	"type":         KindType,
}

// Dispatch resolves a call's callee to the Kind of transfer function to
// run, or KindNone if it names no tracked built-in.
func Dispatch(callee *item.Expr) Kind {
	name, ok := QualifiedName(callee)
	if !ok {
		return KindNone
	}
	k, ok := kindsByName[name]
	if !ok {
		return KindNone
	}
	return k
}
