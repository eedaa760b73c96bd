// Package jack implements a single-pass front-end for the Jack language:
// lexing, recursive-descent parsing and VM-assembly code generation, as
// defined in the Nand2Tetris course materials.
package jack

// VarKind distinguishes the four storage classes a Jack variable can have.
// It decides both symbol-table scope (static/field live class-wide,
// argument/local are reset per subroutine) and the VM segment a reference
// to the variable compiles to.
type VarKind string

const (
	KindStatic VarKind = "static"
	KindField  VarKind = "field"
	KindArg    VarKind = "argument"
	KindLocal  VarKind = "local"
)

// TypeKind enumerates the four Jack data types: the three primitives plus
// class types, which carry a class name.
type TypeKind string

const (
	TypeInt     TypeKind = "int"
	TypeChar    TypeKind = "char"
	TypeBoolean TypeKind = "boolean"
	TypeClass   TypeKind = "class"
)

// VarType is a Jack type: a primitive, or a class name when Kind == TypeClass.
type VarType struct {
	Kind      TypeKind
	ClassName string
}

// SubroutineKind distinguishes constructors, functions and methods, which
// differ in prologue and implicit-this handling.
type SubroutineKind string

const (
	SubConstructor SubroutineKind = "constructor"
	SubFunction    SubroutineKind = "function"
	SubMethod      SubroutineKind = "method"
)

// Class is the root of the parse tree: exactly one per compiled file.
type Class struct {
	Name        string
	Vars        []ClassVar
	Subroutines []Subroutine
}

// ClassVar is a static or field declaration, possibly naming several
// variables of the same type in one statement.
type ClassVar struct {
	Names []string
	Kind  VarKind // KindStatic or KindField
	Type  VarType
}

// Parameter is one entry of a subroutine's parameter list.
type Parameter struct {
	Name string
	Type VarType
}

// VarDec is a local variable declaration inside a subroutine body.
type VarDec struct {
	Names []string
	Type  VarType
}

// Subroutine is a constructor, function or method declaration.
type Subroutine struct {
	Name       string
	Kind       SubroutineKind
	ReturnType *VarType // nil means void
	Params     []Parameter
	Locals     []VarDec
	Body       []Statement
}

// Statement is any of LetStatement, IfStatement, WhileStatement,
// DoStatement or ReturnStatement.
type Statement interface{}

// LetStatement assigns to a plain variable (Index == nil) or to an array
// element (Index != nil).
type LetStatement struct {
	Name  string
	Index *Expression
	Rhs   Expression
}

// IfStatement. Else is nil when no else-clause was written, and a non-nil
// (possibly empty) slice when one was (the distinction drives which label
// pattern the code generator emits).
type IfStatement struct {
	Cond Expression
	Then []Statement
	Else []Statement
}

// WhileStatement.
type WhileStatement struct {
	Cond Expression
	Body []Statement
}

// DoStatement discards the call's return value.
type DoStatement struct {
	Call Call
}

// ReturnStatement. Value is nil for a bare `return;`.
type ReturnStatement struct {
	Value *Expression
}

// Call is a subroutine call: `name(args)` when Receiver == "", otherwise
// `Receiver.name(args)`.
type Call struct {
	Receiver string
	Name     string
	Args     []Expression
}

// Expression is a flat, left-to-right alternation of terms and operators:
// term, op, term, op, term, ..., with no precedence. Jack has none, and
// the code generator folds the sequence left to right to reproduce the
// reference compiler's output.
type Expression struct {
	Elements []interface{} // each element is a Term or an Operator
}

// Operator is one of + - * / & | < > =.
type Operator string

// Term is implemented by every term variant: IntConst, StrConst,
// KeywordConst, VarRef, IndexedVar, Grouped, Unary, CallTerm.
type Term interface {
	isTerm()
}

type IntConst struct{ Value uint16 }

type StrConst struct{ Value string }

// KeywordConst is one of null, false, true, this.
type KeywordConst struct{ Value string }

type VarRef struct{ Name string }

type IndexedVar struct {
	Name  string
	Index *Expression
}

type Grouped struct{ Inner *Expression }

// Unary is `-term` or `~term`.
type Unary struct {
	Op      string
	Operand Term
}

type CallTerm struct{ Call Call }

func (IntConst) isTerm()     {}
func (StrConst) isTerm()     {}
func (KeywordConst) isTerm() {}
func (VarRef) isTerm()       {}
func (IndexedVar) isTerm()   {}
func (Grouped) isTerm()      {}
func (Unary) isTerm()        {}
func (CallTerm) isTerm()     {}
