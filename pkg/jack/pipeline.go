package jack

// CompileSource runs the lex → parse → codegen pipeline over in-memory
// source and returns the generated VM assembly text. It performs no I/O:
// callers own reading the source and writing the result, per the package's
// single-compilation-is-a-pure-function design.
//
// stem is the compiled class's expected name (the input file's basename
// without its .jack extension).
func CompileSource(source, stem string) (string, error) {
	lines := ReadLines(source)

	tokens, err := NewLexer().Tokenize(lines)
	if err != nil {
		return "", err
	}

	class, err := NewParser(tokens, stem).Parse()
	if err != nil {
		return "", err
	}

	return NewCodeGenerator().Generate(class)
}
