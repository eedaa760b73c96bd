package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sevenExpectedVM = `function Main.main 0
push constant 1
push constant 2
push constant 3
call Math.multiply 2
add
call Output.printInt 1
pop temp 0
push constant 0
return
`

// TestHandlerCompilesDirectory exercises the CLI Handler end to end against
// the reference "Seven" program (1 + (2 * 3)), the simplest of the
// scenarios enumerated in spec.md §8.
func TestHandlerCompilesDirectory(t *testing.T) {
	dir := filepath.Join("testdata", "Seven")
	outPath := filepath.Join(dir, "Main.vm")
	defer os.Remove(outPath)

	status := Handler([]string{dir}, map[string]string{})
	require.Equal(t, 0, status)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, sevenExpectedVM, string(got))
}

func TestHandlerRejectsNonJackFile(t *testing.T) {
	status := Handler([]string{"main.go"}, map[string]string{})
	require.Equal(t, 1, status)
}

func TestHandlerRejectsMissingArgument(t *testing.T) {
	status := Handler(nil, map[string]string{})
	require.Equal(t, 1, status)
}

func TestCollectSourcesSkipsNonJackEntries(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Main.jack", "Main.vm", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	sources, err := collectSources(dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "Main.jack")}, sources)
}
