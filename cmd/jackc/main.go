// Command jackc compiles Jack source files into VM assembly.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/teris-io/cli"

	"github.com/matthias-wright/jack-compiler-go/pkg/jack"
)

var description = strings.ReplaceAll(`
The Jack Compiler translates programs written in the Jack language into VM
assembly code that can be further elaborated by a VM translator. Jack is the
small, class-based teaching language used throughout The Elements of
Computing Systems.
`, "\n", " ")

var JackCompiler = cli.New(description).
	WithArg(cli.NewArg("path", "A single .jack file, or a directory of .jack files")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one argument, a .jack file or a directory")
		return 1
	}

	sources, err := collectSources(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	for _, src := range sources {
		if err := compileFile(src); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	}
	return 0
}

// collectSources resolves the single CLI argument to a list of .jack files:
// the path itself if it names a file, or every non-recursive .jack entry of
// a directory.
func collectSources(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %q: %w", path, err)
	}

	if !info.IsDir() {
		if !strings.HasSuffix(path, ".jack") {
			return nil, fmt.Errorf("single file input must end with '.jack': %q", path)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %q: %w", path, err)
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !utf8.ValidString(name) {
			fmt.Fprintf(os.Stderr, "Warning: skipping file with non-UTF-8 name in %q\n", path)
			continue
		}
		if strings.HasSuffix(name, ".jack") {
			sources = append(sources, filepath.Join(path, name))
		}
	}
	return sources, nil
}

func compileFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", path, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), ".jack")
	vmCode, err := jack.CompileSource(string(content), stem)
	if err != nil {
		return fmt.Errorf("compiling %q: %w", path, err)
	}

	outPath := strings.TrimSuffix(path, ".jack") + ".vm"
	if err := os.WriteFile(outPath, []byte(vmCode), 0o644); err != nil {
		return fmt.Errorf("cannot write %q: %w", outPath, err)
	}
	return nil
}

func main() { os.Exit(JackCompiler.Run(os.Args, os.Stdout)) }
