package jack

import (
	"fmt"
	"strings"
)

// segmentFor maps a variable's storage kind to the VM segment a reference
// to it compiles against. Field is the only kind whose segment name
// diverges from its kind name: fields live in the object's `this` segment.
func segmentFor(kind VarKind) string {
	switch kind {
	case KindStatic:
		return "static"
	case KindField:
		return "this"
	case KindArg:
		return "argument"
	case KindLocal:
		return "local"
	default:
		return string(kind)
	}
}

// CodeGenerator walks a parsed Class and emits VM assembly text. One
// instance compiles exactly one class; it is not reused across classes.
type CodeGenerator struct {
	class      string
	symbols    *SymbolTable
	ifIndex    int
	whileIndex int
	lines      []string
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{}
}

func (cg *CodeGenerator) emit(format string, args ...interface{}) {
	cg.lines = append(cg.lines, fmt.Sprintf(format, args...))
}

// Generate lowers class to VM assembly text, one instruction per line with
// a trailing newline.
func (cg *CodeGenerator) Generate(class *Class) (string, error) {
	cg.class = class.Name
	cg.symbols = NewSymbolTable()
	cg.lines = nil

	for _, cv := range class.Vars {
		for _, name := range cv.Names {
			cg.symbols.Define(name, cv.Type, cv.Kind)
		}
	}
	numFields := cg.symbols.Count(KindField)

	for i := range class.Subroutines {
		if err := cg.generateSubroutine(&class.Subroutines[i], numFields); err != nil {
			return "", err
		}
	}

	return strings.Join(cg.lines, "\n") + "\n", nil
}

func (cg *CodeGenerator) generateSubroutine(sub *Subroutine, numFields uint32) error {
	cg.symbols.ClearSubroutineScope()
	cg.ifIndex = 0
	cg.whileIndex = 0

	if sub.Kind == SubMethod {
		cg.symbols.Define("this", VarType{Kind: TypeClass, ClassName: cg.class}, KindArg)
	}
	for _, param := range sub.Params {
		cg.symbols.Define(param.Name, param.Type, KindArg)
	}
	for _, local := range sub.Locals {
		for _, name := range local.Names {
			cg.symbols.Define(name, local.Type, KindLocal)
		}
	}

	cg.emit("function %s.%s %d", cg.class, sub.Name, cg.symbols.Count(KindLocal))

	switch sub.Kind {
	case SubConstructor:
		cg.emit("push constant %d", numFields)
		cg.emit("call Memory.alloc 1")
		cg.emit("pop pointer 0")
	case SubMethod:
		cg.emit("push argument 0")
		cg.emit("pop pointer 0")
	}

	for _, stmt := range sub.Body {
		if err := cg.generateStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGenerator) generateStatement(stmt Statement) error {
	switch s := stmt.(type) {
	case *LetStatement:
		return cg.generateLet(s)
	case *IfStatement:
		return cg.generateIf(s)
	case *WhileStatement:
		return cg.generateWhile(s)
	case *DoStatement:
		return cg.generateDo(s)
	case *ReturnStatement:
		return cg.generateReturn(s)
	default:
		return codegenError("unrecognized statement %T", stmt)
	}
}

func (cg *CodeGenerator) generateLet(s *LetStatement) error {
	sym, ok := cg.symbols.Resolve(s.Name)
	if !ok {
		return codegenError("unknown variable %q", s.Name)
	}

	if s.Index == nil {
		if err := cg.generateExpression(&s.Rhs); err != nil {
			return err
		}
		cg.emit("pop %s %d", segmentFor(sym.Kind), sym.Index)
		return nil
	}

	// a[e] = r: evaluate e, push the base and add to get the target
	// address; evaluate r (which may itself use `that` for another array
	// access) only afterwards; stash r in temp 0 before repointing `that`.
	if err := cg.generateExpression(s.Index); err != nil {
		return err
	}
	cg.emit("push %s %d", segmentFor(sym.Kind), sym.Index)
	cg.emit("add")
	if err := cg.generateExpression(&s.Rhs); err != nil {
		return err
	}
	cg.emit("pop temp 0")
	cg.emit("pop pointer 1")
	cg.emit("push temp 0")
	cg.emit("pop that 0")
	return nil
}

func (cg *CodeGenerator) generateIf(s *IfStatement) error {
	n := cg.ifIndex
	cg.ifIndex++

	if err := cg.generateExpression(&s.Cond); err != nil {
		return err
	}
	cg.emit("if-goto IF_TRUE%d", n)
	cg.emit("goto IF_FALSE%d", n)
	cg.emit("label IF_TRUE%d", n)
	for _, stmt := range s.Then {
		if err := cg.generateStatement(stmt); err != nil {
			return err
		}
	}

	if s.Else != nil {
		cg.emit("goto IF_END%d", n)
		cg.emit("label IF_FALSE%d", n)
		for _, stmt := range s.Else {
			if err := cg.generateStatement(stmt); err != nil {
				return err
			}
		}
		cg.emit("label IF_END%d", n)
	} else {
		cg.emit("label IF_FALSE%d", n)
	}
	return nil
}

func (cg *CodeGenerator) generateWhile(s *WhileStatement) error {
	n := cg.whileIndex
	cg.whileIndex++

	cg.emit("label WHILE_EXP%d", n)
	if err := cg.generateExpression(&s.Cond); err != nil {
		return err
	}
	cg.emit("not")
	cg.emit("if-goto WHILE_END%d", n)
	for _, stmt := range s.Body {
		if err := cg.generateStatement(stmt); err != nil {
			return err
		}
	}
	cg.emit("goto WHILE_EXP%d", n)
	cg.emit("label WHILE_END%d", n)
	return nil
}

func (cg *CodeGenerator) generateDo(s *DoStatement) error {
	if err := cg.generateCall(&s.Call); err != nil {
		return err
	}
	cg.emit("pop temp 0")
	return nil
}

func (cg *CodeGenerator) generateReturn(s *ReturnStatement) error {
	if s.Value != nil {
		if err := cg.generateExpression(s.Value); err != nil {
			return err
		}
	} else {
		cg.emit("push constant 0")
	}
	cg.emit("return")
	return nil
}

func (cg *CodeGenerator) generateExpression(e *Expression) error {
	if len(e.Elements) == 0 {
		return codegenError("empty expression")
	}

	first, ok := e.Elements[0].(Term)
	if !ok {
		return codegenError("expression must start with a term")
	}
	if err := cg.generateTerm(first); err != nil {
		return err
	}

	for i := 1; i+1 < len(e.Elements); i += 2 {
		op, ok := e.Elements[i].(Operator)
		if !ok {
			return codegenError("expected operator at expression position %d", i)
		}
		term, ok := e.Elements[i+1].(Term)
		if !ok {
			return codegenError("expected term at expression position %d", i+1)
		}
		if err := cg.generateTerm(term); err != nil {
			return err
		}
		if err := cg.generateOperator(op); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGenerator) generateOperator(op Operator) error {
	switch op {
	case "+":
		cg.emit("add")
	case "-":
		cg.emit("sub")
	case "=":
		cg.emit("eq")
	case "<":
		cg.emit("lt")
	case ">":
		cg.emit("gt")
	case "&":
		cg.emit("and")
	case "|":
		cg.emit("or")
	case "*":
		cg.emit("call Math.multiply 2")
	case "/":
		cg.emit("call Math.divide 2")
	default:
		return codegenError("unknown binary operator %q", op)
	}
	return nil
}

func (cg *CodeGenerator) generateTerm(term Term) error {
	switch t := term.(type) {
	case IntConst:
		cg.emit("push constant %d", t.Value)
		return nil

	case StrConst:
		return cg.generateStringConst(t.Value)

	case KeywordConst:
		switch t.Value {
		case "null", "false":
			cg.emit("push constant 0")
		case "true":
			cg.emit("push constant 0")
			cg.emit("not")
		case "this":
			cg.emit("push pointer 0")
		default:
			return codegenError("unknown keyword constant %q", t.Value)
		}
		return nil

	case VarRef:
		sym, ok := cg.symbols.Resolve(t.Name)
		if !ok {
			return codegenError("unknown variable %q", t.Name)
		}
		cg.emit("push %s %d", segmentFor(sym.Kind), sym.Index)
		return nil

	case IndexedVar:
		sym, ok := cg.symbols.Resolve(t.Name)
		if !ok {
			return codegenError("unknown variable %q", t.Name)
		}
		if err := cg.generateExpression(t.Index); err != nil {
			return err
		}
		cg.emit("push %s %d", segmentFor(sym.Kind), sym.Index)
		cg.emit("add")
		cg.emit("pop pointer 1")
		cg.emit("push that 0")
		return nil

	case Grouped:
		return cg.generateExpression(t.Inner)

	case Unary:
		if err := cg.generateTerm(t.Operand); err != nil {
			return err
		}
		switch t.Op {
		case "-":
			cg.emit("neg")
		case "~":
			cg.emit("not")
		default:
			return codegenError("unknown unary operator %q", t.Op)
		}
		return nil

	case CallTerm:
		return cg.generateCall(&t.Call)

	default:
		return codegenError("unrecognized term %T", term)
	}
}

func (cg *CodeGenerator) generateStringConst(s string) error {
	cg.emit("push constant %d", len([]rune(s)))
	cg.emit("call String.new 1")
	for _, r := range s {
		if r > 127 {
			return codegenError("non-ASCII character %q in string constant", r)
		}
		cg.emit("push constant %d", r)
		cg.emit("call String.appendChar 2")
	}
	return nil
}

// generateCall implements the three call-dispatch shapes: unqualified calls
// dispatch as a method of the current class; a receiver resolving in scope
// dispatches as a method call on that object; any other receiver is treated
// as a class-level function/constructor call, including when it names a
// class that doesn't actually exist.
func (cg *CodeGenerator) generateCall(c *Call) error {
	if c.Receiver == "" {
		cg.emit("push pointer 0")
		for i := range c.Args {
			if err := cg.generateExpression(&c.Args[i]); err != nil {
				return err
			}
		}
		cg.emit("call %s.%s %d", cg.class, c.Name, len(c.Args)+1)
		return nil
	}

	if sym, ok := cg.symbols.Resolve(c.Receiver); ok {
		if sym.Type.Kind != TypeClass {
			return codegenError("receiver %q is not of class type", c.Receiver)
		}
		cg.emit("push %s %d", segmentFor(sym.Kind), sym.Index)
		for i := range c.Args {
			if err := cg.generateExpression(&c.Args[i]); err != nil {
				return err
			}
		}
		cg.emit("call %s.%s %d", sym.Type.ClassName, c.Name, len(c.Args)+1)
		return nil
	}

	for i := range c.Args {
		if err := cg.generateExpression(&c.Args[i]); err != nil {
			return err
		}
	}
	cg.emit("call %s.%s %d", c.Receiver, c.Name, len(c.Args))
	return nil
}
