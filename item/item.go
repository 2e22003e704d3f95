package item

// Branch is one arm of an If/elseif/else chain: Cond is nil for a
// trailing else (IsElse true); otherwise it is the tested expression.
type Branch struct {
	Cond   *Expr
	Body   []*Item
	IsElse bool
}

// Item is one entry of the ordered statement sequence that the
// collaborator's AST-to-IR pass produces for a single function or
// file-level chunk (spec §3). Control-flow constructs nest their bodies
// directly rather than being expressed as indexed jumps, so the driver
// can walk the tree structurally.
type Item struct {
	Tag Tag
	Pos Pos

	// Local / Set
	Lhs []*Expr
	Rhs []*Expr

	// Eval
	Node *Expr

	// Control
	ControlBlockType ControlBlockType
	// Cond holds the expressions evaluated on entry to a Do-less
	// control construct: the tested condition for While/Repeat, or the
	// start/stop/step/iterator expressions for Fornum/Forin. Unused for
	// If (see Branches), Do, Label, Goto, Return.
	Cond []*Expr
	// Body is the nested block for Do/While/Fornum/Forin/Repeat.
	Body []*Item
	// Branches is the If/elseif/else chain for ControlBlockType == If.
	Branches []Branch
}

// NestedClosures returns every Function expression reachable from this
// item's own expressions (lhs/rhs/eval node/condition), without
// descending into those closures' bodies or into nested Branch/Body
// items (which are processed as their own, separate statements) — the
// same boundary the Expression Walker observes (spec §4.3), reused here
// so the External Reference Tracker can fold closure sets in before a
// statement is processed (spec §4.6).
func (it *Item) NestedClosures() []*LineScope {
	var out []*LineScope
	var visit func(e *Expr)
	visit = func(e *Expr) {
		if e == nil {
			return
		}
		if e.Tag == Function {
			if e.Closure != nil {
				out = append(out, e.Closure)
			}
			return
		}
		visit(e.Base)
		visit(e.Key)
		visit(e.Callee)
		visit(e.Left)
		visit(e.Right)
		for _, a := range e.Args {
			visit(a)
		}
		for _, f := range e.Fields {
			visit(f.Key)
			visit(f.Value)
		}
	}
	for _, e := range it.Lhs {
		visit(e)
	}
	for _, e := range it.Rhs {
		visit(e)
	}
	visit(it.Node)
	for _, e := range it.Cond {
		visit(e)
	}
	for _, b := range it.Branches {
		visit(b.Cond)
	}
	return out
}

// UpvalueSets is the triple of name sets a LineScope (or a nested
// closure) exposes about how it touches its enclosing function's locals.
type UpvalueSets struct {
	Accessed map[string]bool
	Set      map[string]bool
	Mutated  map[string]bool
}

// NewUpvalueSets returns an UpvalueSets with all three maps initialized.
func NewUpvalueSets() UpvalueSets {
	return UpvalueSets{Accessed: map[string]bool{}, Set: map[string]bool{}, Mutated: map[string]bool{}}
}

// LineScope is one function's (or file-level chunk's) pre-built analysis
// unit: its statement sequence, its parameter list, and the upvalue
// classification the collaborator computed for it (spec §6).
type LineScope struct {
	Name     string
	Items    []*Item
	Params   []string
	Upvalues UpvalueSets
	// Lines lists every nested function literal's LineScope declared
	// anywhere in this function, in declaration order. Item.NestedClosures
	// picks out the subset relevant to one statement.
	Lines []*LineScope
}
