package fixture

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/tablelint/item"
	"gopkg.in/yaml.v3"
)

// Loader reads line-scope bundles from a URL (file, memory, or any
// afs-supported scheme), the way the teacher's inspector/info package
// downloads project source through afs.Service rather than os.ReadFile
// directly.
type Loader struct {
	fs afs.Service
}

// NewLoader creates a Loader backed by the default afs service.
func NewLoader() *Loader {
	return &Loader{fs: afs.New()}
}

// Load downloads and parses the bundle at url into runtime LineScopes,
// one per function.
func (l *Loader) Load(ctx context.Context, url string) ([]*item.LineScope, error) {
	data, err := l.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fixture: download %s: %w", url, err)
	}
	return Parse(data)
}

// Parse decodes YAML bundle bytes into runtime LineScopes.
func Parse(data []byte) ([]*item.LineScope, error) {
	var bundle Bundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("fixture: decode bundle: %w", err)
	}
	out := make([]*item.LineScope, 0, len(bundle.Functions))
	for i := range bundle.Functions {
		out = append(out, buildFunction(&bundle.Functions[i]))
	}
	return out, nil
}

func buildFunction(f *FunctionDTO) *item.LineScope {
	ls := &item.LineScope{
		Name:     f.Name,
		Params:   append([]string(nil), f.Params...),
		Upvalues: item.NewUpvalueSets(),
	}
	for _, n := range f.Upvalues.Accessed {
		ls.Upvalues.Accessed[n] = true
	}
	for _, n := range f.Upvalues.Set {
		ls.Upvalues.Set[n] = true
	}
	for _, n := range f.Upvalues.Mutated {
		ls.Upvalues.Mutated[n] = true
	}
	ls.Items = buildItems(f.Items)
	ls.Lines = collectClosures(ls.Items)
	return ls
}

func buildItems(dtos []ItemDTO) []*item.Item {
	out := make([]*item.Item, 0, len(dtos))
	for i := range dtos {
		out = append(out, buildItem(&dtos[i]))
	}
	return out
}

func buildItem(d *ItemDTO) *item.Item {
	it := &item.Item{Pos: item.Pos{Line: d.Line}}
	switch d.Tag {
	case "local":
		it.Tag = item.Local
		it.Lhs = buildExprs(d.Lhs)
		it.Rhs = buildExprs(d.Rhs)
	case "set":
		it.Tag = item.Set
		it.Lhs = buildExprs(d.Lhs)
		it.Rhs = buildExprs(d.Rhs)
	case "eval":
		it.Tag = item.Eval
		it.Node = buildExpr(d.Node)
	default:
		it.Tag = item.Control
		it.ControlBlockType = controlBlockType(d.Tag)
		it.Cond = buildExprs(d.Cond)
		it.Body = buildItems(d.Body)
		it.Branches = buildBranches(d.Branches)
	}
	return it
}

func buildBranches(dtos []BranchDTO) []item.Branch {
	if dtos == nil {
		return nil
	}
	out := make([]item.Branch, 0, len(dtos))
	for _, b := range dtos {
		out = append(out, item.Branch{
			Cond:   buildExpr(b.Cond),
			Body:   buildItems(b.Body),
			IsElse: b.IsElse,
		})
	}
	return out
}

func controlBlockType(tag string) item.ControlBlockType {
	switch tag {
	case "do":
		return item.Do
	case "if":
		return item.If
	case "while":
		return item.While
	case "fornum":
		return item.Fornum
	case "forin":
		return item.Forin
	case "repeat":
		return item.Repeat
	case "label":
		return item.Label
	case "goto":
		return item.Goto
	case "return":
		return item.Return
	default:
		panic(fmt.Sprintf("fixture: unknown item tag %q", tag))
	}
}

func buildExprs(dtos []ExprDTO) []*item.Expr {
	if dtos == nil {
		return nil
	}
	out := make([]*item.Expr, 0, len(dtos))
	for i := range dtos {
		out = append(out, buildExpr(&dtos[i]))
	}
	return out
}

func buildExpr(d *ExprDTO) *item.Expr {
	if d == nil {
		return nil
	}
	e := &item.Expr{Pos: item.Pos{Line: d.Line, Column: d.Column}}
	switch d.Tag {
	case "number":
		e.Tag = item.Number
		e.Num = d.Num
	case "string":
		e.Tag = item.String
		e.Str = d.Str
	case "nil":
		e.Tag = item.Nil
	case "dots":
		e.Tag = item.Dots
	case "id":
		e.Tag = item.Id
		e.Binding = &item.VariableBinding{Name: d.Name, IsGlobal: d.Global}
	case "index":
		e.Tag = item.Index
		e.Base = buildExpr(d.Base)
		e.Key = buildExpr(d.Key)
	case "table":
		e.Tag = item.Table
		for _, f := range d.Fields {
			e.Fields = append(e.Fields, item.Field{Key: buildExpr(f.Key), Value: buildExpr(f.Value)})
		}
	case "call":
		e.Tag = item.Call
		e.Callee = buildExpr(d.Callee)
		e.Args = buildExprs(d.Args)
	case "invoke":
		e.Tag = item.Invoke
		e.Base = buildExpr(d.Base)
		e.Method = d.Method
		e.Args = buildExprs(d.Args)
	case "function":
		e.Tag = item.Function
		if d.Closure != nil {
			e.Closure = buildFunction(d.Closure)
		}
	case "and":
		e.Tag = item.And
		e.Left = buildExpr(d.Left)
		e.Right = buildExpr(d.Right)
	case "or":
		e.Tag = item.Or
		e.Left = buildExpr(d.Left)
		e.Right = buildExpr(d.Right)
	default:
		panic(fmt.Sprintf("fixture: unknown expr tag %q", d.Tag))
	}
	return e
}

// collectClosures walks items depth-first (not descending into nested
// Function bodies) collecting every Function expression's LineScope, in
// declaration order, matching item.LineScope.Lines's documented shape.
func collectClosures(items []*item.Item) []*item.LineScope {
	var out []*item.LineScope
	var visitExpr func(e *item.Expr)
	visitExpr = func(e *item.Expr) {
		if e == nil {
			return
		}
		if e.Tag == item.Function {
			if e.Closure != nil {
				out = append(out, e.Closure)
			}
			return
		}
		visitExpr(e.Base)
		visitExpr(e.Key)
		visitExpr(e.Callee)
		visitExpr(e.Left)
		visitExpr(e.Right)
		for _, a := range e.Args {
			visitExpr(a)
		}
		for _, f := range e.Fields {
			visitExpr(f.Key)
			visitExpr(f.Value)
		}
	}
	var visitItems func(items []*item.Item)
	visitItems = func(items []*item.Item) {
		for _, it := range items {
			for _, e := range it.Lhs {
				visitExpr(e)
			}
			for _, e := range it.Rhs {
				visitExpr(e)
			}
			visitExpr(it.Node)
			for _, e := range it.Cond {
				visitExpr(e)
			}
			visitItems(it.Body)
			for _, b := range it.Branches {
				visitExpr(b.Cond)
				visitItems(b.Body)
			}
		}
	}
	visitItems(items)
	return out
}
