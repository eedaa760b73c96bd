package jack

import "fmt"

// Diagnostic is a fatal compiler error. It carries enough context to
// reproduce the course reference compiler's stderr output: the stage it
// originated in, the offending source line when one exists, and a message.
//
// Codegen errors have no Line: the parse tree drops line provenance once
// tokens are consumed, so only lex and parse errors point back at source.
type Diagnostic struct {
	Stage string // "lex", "parse" or "codegen"
	Line  *Line
	Msg   string
}

func (d *Diagnostic) Error() string {
	if d.Line != nil {
		return fmt.Sprintf("%s error at line %d: %s\n\t%s", d.Stage, d.Line.Number, d.Msg, d.Line.Text)
	}
	return fmt.Sprintf("%s error: %s", d.Stage, d.Msg)
}

func lexError(line *Line, format string, args ...interface{}) error {
	return &Diagnostic{Stage: "lex", Line: line, Msg: fmt.Sprintf(format, args...)}
}

func parseError(line *Line, format string, args ...interface{}) error {
	return &Diagnostic{Stage: "parse", Line: line, Msg: fmt.Sprintf(format, args...)}
}

func codegenError(format string, args ...interface{}) error {
	return &Diagnostic{Stage: "codegen", Msg: fmt.Sprintf(format, args...)}
}
