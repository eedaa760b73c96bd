package jack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, source, stem string) string {
	t.Helper()
	vm, err := CompileSource(source, stem)
	require.NoError(t, err)
	return vm
}

func vmLines(vm string) []string {
	trimmed := strings.TrimSuffix(vm, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// TestCompileSeven is the simplest end-to-end scenario: a void function
// computing and printing 1 + (2 * 3).
func TestCompileSeven(t *testing.T) {
	vm := compile(t, `
class Main {
    function void main() {
        do Output.printInt(1 + (2 * 3));
        return;
    }
}`, "Main")

	expected := strings.Join([]string{
		"function Main.main 0",
		"push constant 1",
		"push constant 2",
		"push constant 3",
		"call Math.multiply 2",
		"add",
		"call Output.printInt 1",
		"pop temp 0",
		"push constant 0",
		"return",
	}, "\n") + "\n"

	assert.Equal(t, expected, vm)
}

func TestCompileConstructorPrologue(t *testing.T) {
	vm := compile(t, `
class Point {
    field int x, y;

    constructor Point new(int ax, int ay) {
        let x = ax;
        let y = ay;
        return this;
    }
}`, "Point")

	lines := vmLines(vm)
	require.True(t, len(lines) >= 4)
	assert.Equal(t, "function Point.new 0", lines[0])
	assert.Equal(t, "push constant 2", lines[1])
	assert.Equal(t, "call Memory.alloc 1", lines[2])
	assert.Equal(t, "pop pointer 0", lines[3])
}

func TestCompileMethodPrologue(t *testing.T) {
	vm := compile(t, `
class Point {
    field int x;

    method int getX() {
        return x;
    }
}`, "Point")

	lines := vmLines(vm)
	assert.Equal(t, "function Point.getX 0", lines[0])
	assert.Equal(t, "push argument 0", lines[1])
	assert.Equal(t, "pop pointer 0", lines[2])
	assert.Equal(t, "push this 0", lines[3])
	assert.Equal(t, "return", lines[4])
}

func TestCompileIfElseLabels(t *testing.T) {
	vm := compile(t, `
class Main {
    function void main() {
        var int x, y;
        if (x) {
            let y = 1;
        } else {
            let y = 2;
        }
        return;
    }
}`, "Main")

	lines := vmLines(vm)
	require.Contains(t, lines, "if-goto IF_TRUE0")
	require.Contains(t, lines, "goto IF_FALSE0")
	require.Contains(t, lines, "label IF_TRUE0")
	require.Contains(t, lines, "goto IF_END0")
	require.Contains(t, lines, "label IF_FALSE0")
	require.Contains(t, lines, "label IF_END0")
}

func TestCompileIfWithoutElseOmitsEndLabel(t *testing.T) {
	vm := compile(t, `
class Main {
    function void main() {
        var int x, y;
        if (x) {
            let y = 1;
        }
        return;
    }
}`, "Main")

	lines := vmLines(vm)
	assert.NotContains(t, lines, "label IF_END0")
	assert.NotContains(t, lines, "goto IF_END0")
	assert.Contains(t, lines, "label IF_FALSE0")
}

func TestCompileWhileLabels(t *testing.T) {
	vm := compile(t, `
class Main {
    function void main() {
        var int x;
        while (x) {
            let x = 0;
        }
        return;
    }
}`, "Main")

	lines := vmLines(vm)
	wantOrder := []string{
		"label WHILE_EXP0",
		"not",
		"if-goto WHILE_END0",
		"goto WHILE_EXP0",
		"label WHILE_END0",
	}
	for _, want := range wantOrder {
		assert.Contains(t, lines, want)
	}
}

func TestCompileNestedIfGetsDistinctLabelIndices(t *testing.T) {
	vm := compile(t, `
class Main {
    function void main() {
        var boolean a, b;
        var int x;
        if (a) {
            if (b) {
                let x = 1;
            }
        }
        return;
    }
}`, "Main")

	lines := vmLines(vm)
	assert.Contains(t, lines, "label IF_TRUE0")
	assert.Contains(t, lines, "label IF_TRUE1")
}

func TestCompileIndexedLetFollowsTempPointerPattern(t *testing.T) {
	vm := compile(t, `
class Main {
    function void main(Array a) {
        let a[0] = 1;
        return;
    }
}`, "Main")

	lines := vmLines(vm)
	idx := indexOf(lines, "pop temp 0")
	require.GreaterOrEqual(t, idx, 0)
	require.Len(t, lines, len(lines)) // sanity
	require.Equal(t, "pop pointer 1", lines[idx+1])
	require.Equal(t, "push temp 0", lines[idx+2])
	require.Equal(t, "pop that 0", lines[idx+3])
}

func TestCompileIndexedTermReadsThroughThat(t *testing.T) {
	vm := compile(t, `
class Main {
    function void main(Array a) {
        do Output.printInt(a[1]);
        return;
    }
}`, "Main")

	lines := vmLines(vm)
	assert.Contains(t, lines, "pop pointer 1")
	assert.Contains(t, lines, "push that 0")
}

func TestCompileStringConstantExpandsToNewAndAppendChar(t *testing.T) {
	vm := compile(t, `
class Main {
    function void main() {
        do Output.printString("hi");
        return;
    }
}`, "Main")

	lines := vmLines(vm)
	assert.Contains(t, lines, "push constant 2")
	assert.Contains(t, lines, "call String.new 1")
	assert.Contains(t, lines, "push constant 104") // 'h'
	assert.Contains(t, lines, "push constant 105") // 'i'
	count := 0
	for _, l := range lines {
		if l == "call String.appendChar 2" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestCompileCallDispatchThreeShapes(t *testing.T) {
	vm := compile(t, `
class Main {
    function void main(Point p) {
        do draw();
        do p.move(1, 2);
        do Sys.halt();
        return;
    }
}`, "Main")

	lines := vmLines(vm)

	// Unqualified: method of the current class, push pointer 0 as this.
	i := indexOf(lines, "push pointer 0")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "call Main.draw 1", lines[i+1])

	// Known variable receiver: method call on the object.
	assert.Contains(t, lines, "push argument 0")
	assert.Contains(t, lines, "call Point.move 3")

	// Unknown receiver: class-level call, no implicit this.
	assert.Contains(t, lines, "call Sys.halt 0")
}

func TestCompileUnknownVariableFails(t *testing.T) {
	_, err := CompileSource(`
class Main {
    function void main() {
        let x = y;
        return;
    }
}`, "Main")
	require.Error(t, err)

	var diag *Diagnostic
	require.ErrorAs(t, err, &diag)
	assert.Equal(t, "codegen", diag.Stage)
}

func TestCompileNonASCIIStringFails(t *testing.T) {
	_, err := CompileSource(`
class Main {
    function void main() {
        do Output.printString("caf`+"é"+`");
        return;
    }
}`, "Main")
	require.Error(t, err)
}

func indexOf(lines []string, target string) int {
	for i, l := range lines {
		if l == target {
			return i
		}
	}
	return -1
}
