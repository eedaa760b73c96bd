package jack

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// xmlEscape replaces the four characters the course's XML format escapes.
// Only these four ever appear in Jack source, so a full encoding/xml
// marshaller buys nothing here; xml.EscapeText would require writing
// through an io.Writer for a single string, so a direct Replacer is used
// instead for the same four-character table write_xml defines.
var xmlEscape = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// TokensToXML renders a token list in the course's flat <tokens> format,
// for comparison against the course's reference token listings.
func TokensToXML(tokens []Token) string {
	var b bytes.Buffer
	b.WriteString("<tokens>\n")
	for _, t := range tokens {
		switch t.Kind {
		case TokSymbol:
			fmt.Fprintf(&b, "<symbol> %s </symbol>\n", xmlEscape.Replace(t.Text))
		case TokKeyword:
			fmt.Fprintf(&b, "<keyword> %s </keyword>\n", t.Text)
		case TokIdentifier:
			fmt.Fprintf(&b, "<identifier> %s </identifier>\n", t.Text)
		case TokIntConst:
			fmt.Fprintf(&b, "<integerConstant> %d </integerConstant>\n", t.IntValue)
		case TokStrConst:
			fmt.Fprintf(&b, "<stringConstant> %s </stringConstant>\n", xmlEscape.Replace(t.Text))
		}
	}
	b.WriteString("</tokens>\n")
	return b.String()
}

// xmlWriter accumulates the parse-tree XML dump. The course format is not a
// generic document tree, so this walks the parse tree directly rather than
// building an intermediate generic node representation.
type xmlWriter struct {
	b bytes.Buffer
}

func (w *xmlWriter) leaf(tag, text string) {
	fmt.Fprintf(&w.b, "<%s> %s </%s>\n", tag, xmlEscape.Replace(text), tag)
}

func (w *xmlWriter) open(tag string)  { fmt.Fprintf(&w.b, "<%s>\n", tag) }
func (w *xmlWriter) close(tag string) { fmt.Fprintf(&w.b, "</%s>\n", tag) }

// ClassToXML renders a parsed Class in the course's nested parse-tree XML
// format, for comparison against the course's reference parse trees.
func ClassToXML(c *Class) string {
	w := &xmlWriter{}
	w.writeClass(c)
	return w.b.String()
}

func (w *xmlWriter) writeClass(c *Class) {
	w.open("class")
	w.leaf("keyword", "class")
	w.leaf("identifier", c.Name)
	w.leaf("symbol", "{")
	for _, cv := range c.Vars {
		w.writeClassVar(&cv)
	}
	for _, sub := range c.Subroutines {
		w.writeSubroutine(&sub)
	}
	w.leaf("symbol", "}")
	w.close("class")
}

func (w *xmlWriter) writeType(t VarType) {
	switch t.Kind {
	case TypeClass:
		w.leaf("identifier", t.ClassName)
	default:
		w.leaf("keyword", string(t.Kind))
	}
}

func (w *xmlWriter) writeNameList(names []string) {
	for i, name := range names {
		if i > 0 {
			w.leaf("symbol", ",")
		}
		w.leaf("identifier", name)
	}
	w.leaf("symbol", ";")
}

func (w *xmlWriter) writeClassVar(cv *ClassVar) {
	w.open("classVarDec")
	w.leaf("keyword", string(cv.Kind))
	w.writeType(cv.Type)
	w.writeNameList(cv.Names)
	w.close("classVarDec")
}

func (w *xmlWriter) writeSubroutine(sub *Subroutine) {
	w.open("subroutineDec")
	w.leaf("keyword", string(sub.Kind))
	if sub.ReturnType == nil {
		w.leaf("keyword", "void")
	} else {
		w.writeType(*sub.ReturnType)
	}
	w.leaf("identifier", sub.Name)
	w.leaf("symbol", "(")
	w.open("parameterList")
	for i, p := range sub.Params {
		if i > 0 {
			w.leaf("symbol", ",")
		}
		w.writeType(p.Type)
		w.leaf("identifier", p.Name)
	}
	w.close("parameterList")
	w.leaf("symbol", ")")

	w.open("subroutineBody")
	w.leaf("symbol", "{")
	for _, local := range sub.Locals {
		w.open("varDec")
		w.leaf("keyword", "var")
		w.writeType(local.Type)
		w.writeNameList(local.Names)
		w.close("varDec")
	}
	w.open("statements")
	for _, stmt := range sub.Body {
		w.writeStatement(stmt)
	}
	w.close("statements")
	w.leaf("symbol", "}")
	w.close("subroutineBody")

	w.close("subroutineDec")
}

func (w *xmlWriter) writeStatement(stmt Statement) {
	switch s := stmt.(type) {
	case *LetStatement:
		w.open("letStatement")
		w.leaf("keyword", "let")
		w.leaf("identifier", s.Name)
		if s.Index != nil {
			w.leaf("symbol", "[")
			w.writeExpression(s.Index)
			w.leaf("symbol", "]")
		}
		w.leaf("symbol", "=")
		w.writeExpression(&s.Rhs)
		w.leaf("symbol", ";")
		w.close("letStatement")

	case *IfStatement:
		w.open("ifStatement")
		w.leaf("keyword", "if")
		w.leaf("symbol", "(")
		w.writeExpression(&s.Cond)
		w.leaf("symbol", ")")
		w.leaf("symbol", "{")
		w.open("statements")
		for _, st := range s.Then {
			w.writeStatement(st)
		}
		w.close("statements")
		w.leaf("symbol", "}")
		if s.Else != nil {
			w.leaf("keyword", "else")
			w.leaf("symbol", "{")
			w.open("statements")
			for _, st := range s.Else {
				w.writeStatement(st)
			}
			w.close("statements")
			w.leaf("symbol", "}")
		}
		w.close("ifStatement")

	case *WhileStatement:
		w.open("whileStatement")
		w.leaf("keyword", "while")
		w.leaf("symbol", "(")
		w.writeExpression(&s.Cond)
		w.leaf("symbol", ")")
		w.leaf("symbol", "{")
		w.open("statements")
		for _, st := range s.Body {
			w.writeStatement(st)
		}
		w.close("statements")
		w.leaf("symbol", "}")
		w.close("whileStatement")

	case *DoStatement:
		w.open("doStatement")
		w.leaf("keyword", "do")
		w.writeCall(&s.Call)
		w.leaf("symbol", ";")
		w.close("doStatement")

	case *ReturnStatement:
		w.open("returnStatement")
		w.leaf("keyword", "return")
		if s.Value != nil {
			w.writeExpression(s.Value)
		}
		w.leaf("symbol", ";")
		w.close("returnStatement")
	}
}

func (w *xmlWriter) writeCall(c *Call) {
	if c.Receiver != "" {
		w.leaf("identifier", c.Receiver)
		w.leaf("symbol", ".")
	}
	w.leaf("identifier", c.Name)
	w.leaf("symbol", "(")
	w.open("expressionList")
	for i := range c.Args {
		if i > 0 {
			w.leaf("symbol", ",")
		}
		w.writeExpression(&c.Args[i])
	}
	w.close("expressionList")
	w.leaf("symbol", ")")
}

func (w *xmlWriter) writeExpression(e *Expression) {
	w.open("expression")
	for _, el := range e.Elements {
		switch v := el.(type) {
		case Operator:
			w.leaf("symbol", string(v))
		default:
			w.writeTerm(v.(Term))
		}
	}
	w.close("expression")
}

func (w *xmlWriter) writeTerm(term Term) {
	w.open("term")
	switch t := term.(type) {
	case IntConst:
		w.leaf("integerConstant", strconv.FormatUint(uint64(t.Value), 10))
	case StrConst:
		w.leaf("stringConstant", t.Value)
	case KeywordConst:
		w.leaf("keyword", t.Value)
	case VarRef:
		w.leaf("identifier", t.Name)
	case IndexedVar:
		w.leaf("identifier", t.Name)
		w.leaf("symbol", "[")
		w.writeExpression(t.Index)
		w.leaf("symbol", "]")
	case Grouped:
		w.leaf("symbol", "(")
		w.writeExpression(t.Inner)
		w.leaf("symbol", ")")
	case Unary:
		w.leaf("symbol", t.Op)
		w.writeTerm(t.Operand)
	case CallTerm:
		w.writeCall(&t.Call)
	}
	w.close("term")
}
