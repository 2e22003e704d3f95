// Package fixture loads line-scope bundles (YAML) describing the
// collaborator's IR (spec §3, §6) for tests and for the CLI, the way
// the teacher's inspector/info package loads project source via
// afs.Service rather than the raw os package.
package fixture

// Bundle is the top-level file shape: one or more functions to analyze
// independently, as AnalyzeFunction expects one LineScope per call.
type Bundle struct {
	Functions []FunctionDTO `yaml:"functions"`
}

// FunctionDTO mirrors item.LineScope.
type FunctionDTO struct {
	Name     string       `yaml:"name"`
	Params   []string     `yaml:"params,omitempty"`
	Items    []ItemDTO    `yaml:"items"`
	Upvalues UpvaluesDTO  `yaml:"upvalues,omitempty"`
}

// UpvaluesDTO mirrors item.UpvalueSets as name lists.
type UpvaluesDTO struct {
	Accessed []string `yaml:"accessed,omitempty"`
	Set      []string `yaml:"set,omitempty"`
	Mutated  []string `yaml:"mutated,omitempty"`
}

// ItemDTO mirrors item.Item. Tag selects which fields apply:
//
//	local/set   -> Lhs, Rhs
//	eval        -> Node
//	do          -> Body
//	while/repeat/fornum/forin -> Cond, Body
//	if          -> Branches
//	label/goto/return -> none
type ItemDTO struct {
	Tag      string       `yaml:"tag"`
	Line     int          `yaml:"line,omitempty"`
	Lhs      []ExprDTO    `yaml:"lhs,omitempty"`
	Rhs      []ExprDTO    `yaml:"rhs,omitempty"`
	Node     *ExprDTO     `yaml:"node,omitempty"`
	Cond     []ExprDTO    `yaml:"cond,omitempty"`
	Body     []ItemDTO    `yaml:"body,omitempty"`
	Branches []BranchDTO  `yaml:"branches,omitempty"`
}

// BranchDTO mirrors item.Branch.
type BranchDTO struct {
	Cond   *ExprDTO  `yaml:"cond,omitempty"`
	Body   []ItemDTO `yaml:"body,omitempty"`
	IsElse bool      `yaml:"is_else,omitempty"`
}

// FieldDTO mirrors item.Field.
type FieldDTO struct {
	Key   *ExprDTO `yaml:"key,omitempty"`
	Value *ExprDTO `yaml:"value,omitempty"`
}

// ExprDTO mirrors item.Expr. Tag selects which fields apply:
//
//	number -> Num        string -> Str         id -> Name, Global
//	index  -> Base, Key  table  -> Fields
//	call   -> Callee, Args       invoke -> Base, Method, Args
//	function -> Closure          and/or -> Left, Right
type ExprDTO struct {
	Tag    string     `yaml:"tag"`
	Line   int        `yaml:"line,omitempty"`
	Column int        `yaml:"column,omitempty"`

	Name   string `yaml:"name,omitempty"`
	Global bool   `yaml:"global,omitempty"`

	Base *ExprDTO `yaml:"base,omitempty"`
	Key  *ExprDTO `yaml:"key,omitempty"`

	Fields []FieldDTO `yaml:"fields,omitempty"`

	Callee *ExprDTO   `yaml:"callee,omitempty"`
	Method string     `yaml:"method,omitempty"`
	Args   []ExprDTO  `yaml:"args,omitempty"`

	Closure *FunctionDTO `yaml:"closure,omitempty"`

	Left  *ExprDTO `yaml:"left,omitempty"`
	Right *ExprDTO `yaml:"right,omitempty"`

	Str string  `yaml:"str,omitempty"`
	Num float64 `yaml:"num,omitempty"`
}
