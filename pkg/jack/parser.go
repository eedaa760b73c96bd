package jack

// Parser is a recursive-descent parser over a flat token slice addressed by
// an integer cursor. Most production methods return (node, next-cursor,
// error); statements, expressions and expression lists are parsed over a
// token range whose end is already known and return (node, error). There is
// no backtracking and no error recovery, and the first grammar violation
// aborts the whole parse.
type Parser struct {
	tokens   []Token
	filename string // expected class name (the file's stem)
}

// NewParser builds a parser for tokens, where filename is the compiled
// file's stem; the parsed class's name must equal it.
func NewParser(tokens []Token, filename string) *Parser {
	return &Parser{tokens: tokens, filename: filename}
}

// Parse runs the top-level `class` production over the whole token stream.
func (p *Parser) Parse() (*Class, error) {
	class, _, err := p.parseClass(0)
	return class, err
}

func (p *Parser) tok(i int) (Token, error) {
	if i < 0 || i >= len(p.tokens) {
		return Token{}, parseError(p.lineAt(i), "unexpected end of input")
	}
	return p.tokens[i], nil
}

func (p *Parser) lineAt(i int) *Line {
	if i >= 0 && i < len(p.tokens) {
		return p.tokens[i].Line
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1].Line
	}
	return nil
}

func (p *Parser) isSymbol(i int, sym string) bool {
	t, err := p.tok(i)
	return err == nil && t.Kind == TokSymbol && t.Text == sym
}

func (p *Parser) isKeyword(i int, kw string) bool {
	t, err := p.tok(i)
	return err == nil && t.Kind == TokKeyword && t.Text == kw
}

func (p *Parser) expectKeyword(i int, kw string) error {
	t, err := p.tok(i)
	if err != nil {
		return err
	}
	if t.Kind != TokKeyword || t.Text != kw {
		return parseError(t.Line, "expected keyword %q", kw)
	}
	return nil
}

func (p *Parser) expectSymbol(i int, sym string) error {
	t, err := p.tok(i)
	if err != nil {
		return err
	}
	if t.Kind != TokSymbol || t.Text != sym {
		return parseError(t.Line, "expected %q", sym)
	}
	return nil
}

// parseClass : 'class' IDENT '{' classVarDec* subroutineDec* '}'
func (p *Parser) parseClass(i int) (*Class, int, error) {
	if err := p.expectKeyword(i, "class"); err != nil {
		return nil, 0, err
	}
	i++

	nameTok, err := p.tok(i)
	if err != nil {
		return nil, 0, err
	}
	if nameTok.Kind != TokIdentifier {
		return nil, 0, parseError(nameTok.Line, "expected class name identifier")
	}
	if nameTok.Text != p.filename {
		return nil, 0, parseError(nameTok.Line, "class name %q must match file name %q", nameTok.Text, p.filename)
	}
	i++

	if err := p.expectSymbol(i, "{"); err != nil {
		return nil, 0, err
	}
	i++

	var vars []ClassVar
	for p.isKeyword(i, "static") || p.isKeyword(i, "field") {
		cv, j, err := p.parseClassVar(i)
		if err != nil {
			return nil, 0, err
		}
		vars = append(vars, *cv)
		i = j
	}

	var subs []Subroutine
	for p.isKeyword(i, "constructor") || p.isKeyword(i, "function") || p.isKeyword(i, "method") {
		sub, j, err := p.parseSubroutine(i)
		if err != nil {
			return nil, 0, err
		}
		subs = append(subs, *sub)
		i = j
	}

	if err := p.expectSymbol(i, "}"); err != nil {
		return nil, 0, err
	}
	i++

	return &Class{Name: nameTok.Text, Vars: vars, Subroutines: subs}, i, nil
}

// parseVarType : 'int' | 'char' | 'boolean' | IDENT
func (p *Parser) parseVarType(i int) (VarType, int, error) {
	t, err := p.tok(i)
	if err != nil {
		return VarType{}, 0, err
	}
	switch {
	case t.Kind == TokKeyword && t.Text == "int":
		return VarType{Kind: TypeInt}, i + 1, nil
	case t.Kind == TokKeyword && t.Text == "char":
		return VarType{Kind: TypeChar}, i + 1, nil
	case t.Kind == TokKeyword && t.Text == "boolean":
		return VarType{Kind: TypeBoolean}, i + 1, nil
	case t.Kind == TokIdentifier:
		return VarType{Kind: TypeClass, ClassName: t.Text}, i + 1, nil
	default:
		return VarType{}, 0, parseError(t.Line, "expected a type")
	}
}

// parseNameList parses `IDENT (',' IDENT)* ';'`, the common tail of
// classVarDec and varDec.
func (p *Parser) parseNameList(i int) ([]string, int, error) {
	var names []string
	for {
		t, err := p.tok(i)
		if err != nil {
			return nil, 0, err
		}
		if t.Kind != TokIdentifier {
			return nil, 0, parseError(t.Line, "expected variable name")
		}
		names = append(names, t.Text)
		i++

		t, err = p.tok(i)
		if err != nil {
			return nil, 0, err
		}
		if t.Kind == TokSymbol && t.Text == "," {
			i++
			continue
		}
		if t.Kind == TokSymbol && t.Text == ";" {
			i++
			break
		}
		return nil, 0, parseError(t.Line, "expected ',' or ';' in variable declaration")
	}
	return names, i, nil
}

// parseClassVar : ('static'|'field') type IDENT (',' IDENT)* ';'
func (p *Parser) parseClassVar(i int) (*ClassVar, int, error) {
	kwTok, err := p.tok(i)
	if err != nil {
		return nil, 0, err
	}
	kind := KindField
	if kwTok.Text == "static" {
		kind = KindStatic
	}
	i++

	vt, i, err := p.parseVarType(i)
	if err != nil {
		return nil, 0, err
	}

	names, i, err := p.parseNameList(i)
	if err != nil {
		return nil, 0, err
	}

	return &ClassVar{Names: names, Kind: kind, Type: vt}, i, nil
}

// parseVarDec : 'var' type IDENT (',' IDENT)* ';'
func (p *Parser) parseVarDec(i int) (*VarDec, int, error) {
	if err := p.expectKeyword(i, "var"); err != nil {
		return nil, 0, err
	}
	i++

	vt, i, err := p.parseVarType(i)
	if err != nil {
		return nil, 0, err
	}

	names, i, err := p.parseNameList(i)
	if err != nil {
		return nil, 0, err
	}

	return &VarDec{Names: names, Type: vt}, i, nil
}

// parseSubroutine : ('constructor'|'function'|'method') (type|'void')
//                   IDENT '(' parameterList ')' subroutineBody
func (p *Parser) parseSubroutine(i int) (*Subroutine, int, error) {
	kwTok, err := p.tok(i)
	if err != nil {
		return nil, 0, err
	}
	var kind SubroutineKind
	switch kwTok.Text {
	case "constructor":
		kind = SubConstructor
	case "function":
		kind = SubFunction
	case "method":
		kind = SubMethod
	}
	i++

	var returnType *VarType
	t, err := p.tok(i)
	if err != nil {
		return nil, 0, err
	}
	if t.Kind == TokKeyword && t.Text == "void" {
		i++
	} else {
		vt, j, err := p.parseVarType(i)
		if err != nil {
			return nil, 0, err
		}
		returnType = &vt
		i = j
	}

	nameTok, err := p.tok(i)
	if err != nil {
		return nil, 0, err
	}
	if nameTok.Kind != TokIdentifier {
		return nil, 0, parseError(nameTok.Line, "expected subroutine name")
	}
	i++

	if err := p.expectSymbol(i, "("); err != nil {
		return nil, 0, err
	}
	openParen := i
	i++
	closeParen, err := p.findClosingBracket(openParen)
	if err != nil {
		return nil, 0, err
	}
	params, _, err := p.parseParameterList(i)
	if err != nil {
		return nil, 0, err
	}
	i = closeParen + 1

	if err := p.expectSymbol(i, "{"); err != nil {
		return nil, 0, err
	}
	bodyEnd, err := p.findClosingBracket(i)
	if err != nil {
		return nil, 0, err
	}
	i++

	var locals []VarDec
	for p.isKeyword(i, "var") {
		vd, j, err := p.parseVarDec(i)
		if err != nil {
			return nil, 0, err
		}
		locals = append(locals, *vd)
		i = j
	}

	statements, err := p.parseStatements(i, bodyEnd)
	if err != nil {
		return nil, 0, err
	}

	return &Subroutine{
		Name:       nameTok.Text,
		Kind:       kind,
		ReturnType: returnType,
		Params:     params,
		Locals:     locals,
		Body:       statements,
	}, bodyEnd + 1, nil
}

// parseParameterList : (type IDENT (',' type IDENT)*)?
func (p *Parser) parseParameterList(i int) ([]Parameter, int, error) {
	var params []Parameter
	if p.isSymbol(i, ")") {
		return params, i, nil
	}
	for {
		vt, j, err := p.parseVarType(i)
		if err != nil {
			return nil, 0, err
		}
		i = j

		nameTok, err := p.tok(i)
		if err != nil {
			return nil, 0, err
		}
		if nameTok.Kind != TokIdentifier {
			return nil, 0, parseError(nameTok.Line, "expected parameter name")
		}
		params = append(params, Parameter{Name: nameTok.Text, Type: vt})
		i++

		if p.isSymbol(i, ",") {
			i++
			continue
		}
		break
	}
	return params, i, nil
}

// parseStatements parses statement* up to (but excluding) the token at end.
func (p *Parser) parseStatements(i, end int) ([]Statement, error) {
	var stmts []Statement
	for i < end {
		stmt, j, err := p.parseStatement(i)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		i = j
	}
	return stmts, nil
}

func (p *Parser) parseStatement(i int) (Statement, int, error) {
	t, err := p.tok(i)
	if err != nil {
		return nil, 0, err
	}
	if t.Kind != TokKeyword {
		return nil, 0, parseError(t.Line, "expected a statement")
	}
	switch t.Text {
	case "let":
		return p.parseLet(i)
	case "if":
		return p.parseIf(i)
	case "while":
		return p.parseWhile(i)
	case "do":
		return p.parseDo(i)
	case "return":
		return p.parseReturn(i)
	default:
		return nil, 0, parseError(t.Line, "expected a statement, got keyword %q", t.Text)
	}
}

// parseLet : 'let' IDENT ('[' expression ']')? '=' expression ';'
func (p *Parser) parseLet(i int) (Statement, int, error) {
	i++ // 'let'
	nameTok, err := p.tok(i)
	if err != nil {
		return nil, 0, err
	}
	if nameTok.Kind != TokIdentifier {
		return nil, 0, parseError(nameTok.Line, "expected variable name after 'let'")
	}
	i++

	var index *Expression
	if p.isSymbol(i, "[") {
		openBracket := i
		closeBracket, err := p.findClosingBracket(openBracket)
		if err != nil {
			return nil, 0, err
		}
		expr, err := p.parseExpression(openBracket+1, closeBracket-1)
		if err != nil {
			return nil, 0, err
		}
		index = expr
		i = closeBracket + 1
	}

	if err := p.expectSymbol(i, "="); err != nil {
		return nil, 0, err
	}
	i++

	// Safe because Jack expressions cannot themselves contain ';'.
	semi, err := p.findSymbol(";", i, len(p.tokens))
	if err != nil {
		return nil, 0, err
	}
	rhs, err := p.parseExpression(i, semi-1)
	if err != nil {
		return nil, 0, err
	}

	return &LetStatement{Name: nameTok.Text, Index: index, Rhs: *rhs}, semi + 1, nil
}

// parseIf : 'if' '(' expression ')' '{' statement* '}' ('else' '{' statement* '}')?
func (p *Parser) parseIf(i int) (Statement, int, error) {
	i++ // 'if'
	if err := p.expectSymbol(i, "("); err != nil {
		return nil, 0, err
	}
	closeParen, err := p.findClosingBracket(i)
	if err != nil {
		return nil, 0, err
	}
	cond, err := p.parseExpression(i+1, closeParen-1)
	if err != nil {
		return nil, 0, err
	}
	i = closeParen + 1

	if err := p.expectSymbol(i, "{"); err != nil {
		return nil, 0, err
	}
	closeBrace, err := p.findClosingBracket(i)
	if err != nil {
		return nil, 0, err
	}
	thenStmts, err := p.parseStatements(i+1, closeBrace)
	if err != nil {
		return nil, 0, err
	}
	i = closeBrace + 1

	stmt := &IfStatement{Cond: *cond, Then: thenStmts}

	if p.isKeyword(i, "else") {
		i++
		if err := p.expectSymbol(i, "{"); err != nil {
			return nil, 0, err
		}
		closeElse, err := p.findClosingBracket(i)
		if err != nil {
			return nil, 0, err
		}
		elseStmts, err := p.parseStatements(i+1, closeElse)
		if err != nil {
			return nil, 0, err
		}
		if elseStmts == nil {
			elseStmts = []Statement{}
		}
		stmt.Else = elseStmts
		i = closeElse + 1
	}

	return stmt, i, nil
}

// parseWhile : 'while' '(' expression ')' '{' statement* '}'
func (p *Parser) parseWhile(i int) (Statement, int, error) {
	i++ // 'while'
	if err := p.expectSymbol(i, "("); err != nil {
		return nil, 0, err
	}
	closeParen, err := p.findClosingBracket(i)
	if err != nil {
		return nil, 0, err
	}
	cond, err := p.parseExpression(i+1, closeParen-1)
	if err != nil {
		return nil, 0, err
	}
	i = closeParen + 1

	if err := p.expectSymbol(i, "{"); err != nil {
		return nil, 0, err
	}
	closeBrace, err := p.findClosingBracket(i)
	if err != nil {
		return nil, 0, err
	}
	body, err := p.parseStatements(i+1, closeBrace)
	if err != nil {
		return nil, 0, err
	}
	i = closeBrace + 1

	return &WhileStatement{Cond: *cond, Body: body}, i, nil
}

// parseDo : 'do' subroutineCall ';'
func (p *Parser) parseDo(i int) (Statement, int, error) {
	i++ // 'do'
	call, j, err := p.parseCall(i)
	if err != nil {
		return nil, 0, err
	}
	if err := p.expectSymbol(j, ";"); err != nil {
		return nil, 0, err
	}
	return &DoStatement{Call: *call}, j + 1, nil
}

// parseReturn : 'return' expression? ';'
func (p *Parser) parseReturn(i int) (Statement, int, error) {
	i++ // 'return'
	if p.isSymbol(i, ";") {
		return &ReturnStatement{}, i + 1, nil
	}
	semi, err := p.findSymbol(";", i, len(p.tokens))
	if err != nil {
		return nil, 0, err
	}
	expr, err := p.parseExpression(i, semi-1)
	if err != nil {
		return nil, 0, err
	}
	return &ReturnStatement{Value: expr}, semi + 1, nil
}

// parseCall : IDENT '(' expressionList ')' | IDENT '.' IDENT '(' expressionList ')'
func (p *Parser) parseCall(i int) (*Call, int, error) {
	nameTok, err := p.tok(i)
	if err != nil {
		return nil, 0, err
	}
	if nameTok.Kind != TokIdentifier {
		return nil, 0, parseError(nameTok.Line, "expected subroutine, class or variable name")
	}
	i++

	var receiver string
	name := nameTok.Text
	if p.isSymbol(i, ".") {
		receiver = nameTok.Text
		i++
		fnTok, err := p.tok(i)
		if err != nil {
			return nil, 0, err
		}
		if fnTok.Kind != TokIdentifier {
			return nil, 0, parseError(fnTok.Line, "expected subroutine name after '.'")
		}
		name = fnTok.Text
		i++
	}

	if err := p.expectSymbol(i, "("); err != nil {
		return nil, 0, err
	}
	closeParen, err := p.findClosingBracket(i)
	if err != nil {
		return nil, 0, err
	}
	args, err := p.parseExpressionList(i+1, closeParen-1)
	if err != nil {
		return nil, 0, err
	}

	return &Call{Receiver: receiver, Name: name, Args: args}, closeParen + 1, nil
}

// parseTerm disambiguates bare identifier / indexed variable / call purely
// from the token immediately following the identifier.
func (p *Parser) parseTerm(i int) (Term, int, error) {
	t, err := p.tok(i)
	if err != nil {
		return nil, 0, err
	}

	switch {
	case t.Kind == TokIntConst:
		return IntConst{Value: t.IntValue}, i + 1, nil

	case t.Kind == TokStrConst:
		return StrConst{Value: t.Text}, i + 1, nil

	case t.Kind == TokKeyword && (t.Text == "null" || t.Text == "false" || t.Text == "true" || t.Text == "this"):
		return KeywordConst{Value: t.Text}, i + 1, nil

	case t.Kind == TokSymbol && t.Text == "(":
		closeParen, err := p.findClosingBracket(i)
		if err != nil {
			return nil, 0, err
		}
		expr, err := p.parseExpression(i+1, closeParen-1)
		if err != nil {
			return nil, 0, err
		}
		return Grouped{Inner: expr}, closeParen + 1, nil

	case t.Kind == TokSymbol && (t.Text == "-" || t.Text == "~"):
		operand, j, err := p.parseTerm(i + 1)
		if err != nil {
			return nil, 0, err
		}
		return Unary{Op: t.Text, Operand: operand}, j, nil

	case t.Kind == TokIdentifier:
		next, nextErr := p.tok(i + 1)
		if nextErr == nil && next.Kind == TokSymbol && next.Text == "[" {
			closeBracket, err := p.findClosingBracket(i + 1)
			if err != nil {
				return nil, 0, err
			}
			expr, err := p.parseExpression(i+2, closeBracket-1)
			if err != nil {
				return nil, 0, err
			}
			return IndexedVar{Name: t.Text, Index: expr}, closeBracket + 1, nil
		}
		if nextErr == nil && next.Kind == TokSymbol && (next.Text == "(" || next.Text == ".") {
			call, j, err := p.parseCall(i)
			if err != nil {
				return nil, 0, err
			}
			return CallTerm{Call: *call}, j, nil
		}
		return VarRef{Name: t.Text}, i + 1, nil

	default:
		return nil, 0, parseError(t.Line, "unexpected token in term")
	}
}

func isBinOp(s string) bool {
	switch s {
	case "+", "-", "*", "/", "&", "|", "<", ">", "=":
		return true
	}
	return false
}

// parseExpression : term (op term)*, over the inclusive range [start, end].
func (p *Parser) parseExpression(start, end int) (*Expression, error) {
	var elements []interface{}
	i := start
	expectTerm := true

	for i <= end {
		if expectTerm {
			term, j, err := p.parseTerm(i)
			if err != nil {
				return nil, err
			}
			elements = append(elements, term)
			i = j
			expectTerm = false
			continue
		}

		t, err := p.tok(i)
		if err != nil {
			return nil, err
		}
		if t.Kind != TokSymbol || !isBinOp(t.Text) {
			return nil, parseError(t.Line, "expected an operator in expression")
		}
		elements = append(elements, Operator(t.Text))
		i++
		expectTerm = true
	}

	if expectTerm {
		return nil, parseError(p.lineAt(start), "expression must contain at least one term")
	}
	return &Expression{Elements: elements}, nil
}

// parseExpressionList : (expression (',' expression)*)?, over the inclusive
// range [start, end].
func (p *Parser) parseExpressionList(start, end int) ([]Expression, error) {
	var exprs []Expression
	if start > end {
		return exprs, nil
	}

	i := start
	for {
		commaIdx, found := p.nextCommaInExpressionList(i, end)
		exprEnd := end
		if found {
			exprEnd = commaIdx - 1
		}
		expr, err := p.parseExpression(i, exprEnd)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, *expr)
		if !found {
			break
		}
		i = commaIdx + 1
	}
	return exprs, nil
}

// nextCommaInExpressionList scans [start, end] for the next top-level comma,
// ignoring commas nested inside parentheses. Commas inside '[...]' are not
// handled here: the grammar never nests an expressionList inside a
// subscript, so this never arises in well-formed programs.
func (p *Parser) nextCommaInExpressionList(start, end int) (int, bool) {
	depth := 0
	for i := start; i <= end; i++ {
		t := p.tokens[i]
		if t.Kind != TokSymbol {
			continue
		}
		switch t.Text {
		case "(":
			depth++
		case ")":
			depth--
		case ",":
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// findClosingBracket locates the bracket matching the opener at index open,
// via a depth counter over that single bracket family. Callers supply the
// opener; mixed nesting of other families within the scan is not tracked,
// matching well-formed Jack programs.
func (p *Parser) findClosingBracket(open int) (int, error) {
	openTok, err := p.tok(open)
	if err != nil {
		return 0, err
	}

	var openSym, closeSym string
	switch openTok.Text {
	case "(":
		openSym, closeSym = "(", ")"
	case "[":
		openSym, closeSym = "[", "]"
	case "{":
		openSym, closeSym = "{", "}"
	default:
		return 0, parseError(openTok.Line, "internal error: %q is not an opening bracket", openTok.Text)
	}

	depth := 1
	for i := open + 1; i < len(p.tokens); i++ {
		t := p.tokens[i]
		if t.Kind != TokSymbol {
			continue
		}
		switch t.Text {
		case openSym:
			depth++
		case closeSym:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, parseError(openTok.Line, "unmatched %q", openTok.Text)
}

// findSymbol scans [start, end) for the first occurrence of a symbol token
// with the given text.
func (p *Parser) findSymbol(target string, start, end int) (int, error) {
	for i := start; i < end && i < len(p.tokens); i++ {
		t := p.tokens[i]
		if t.Kind == TokSymbol && t.Text == target {
			return i, nil
		}
	}
	return 0, parseError(p.lineAt(start), "expected %q", target)
}
