package jack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensToXMLEscapesReservedCharacters(t *testing.T) {
	tokens, err := NewLexer().Tokenize(ReadLines(`let x = a < b & c > d;`))
	require.NoError(t, err)

	xml := TokensToXML(tokens)
	assert.True(t, strings.HasPrefix(xml, "<tokens>\n"))
	assert.True(t, strings.HasSuffix(xml, "</tokens>\n"))
	assert.Contains(t, xml, "<symbol> &lt; </symbol>")
	assert.Contains(t, xml, "<symbol> &amp; </symbol>")
	assert.Contains(t, xml, "<symbol> &gt; </symbol>")
}

func TestTokensToXMLRendersEachLeafTag(t *testing.T) {
	tokens, err := NewLexer().Tokenize(ReadLines(`class Foo { field int x; }`))
	require.NoError(t, err)

	xml := TokensToXML(tokens)
	assert.Contains(t, xml, "<keyword> class </keyword>")
	assert.Contains(t, xml, "<identifier> Foo </identifier>")
	assert.Contains(t, xml, "<symbol> { </symbol>")
}

func TestClassToXMLProducesBalancedNesting(t *testing.T) {
	tokens, err := NewLexer().Tokenize(ReadLines(`
class Main {
    function void main() {
        let x = 1;
        return;
    }
}`))
	require.NoError(t, err)

	class, err := NewParser(tokens, "Main").Parse()
	require.NoError(t, err)

	xml := ClassToXML(class)
	assert.True(t, strings.HasPrefix(xml, "<class>\n"))
	assert.True(t, strings.HasSuffix(xml, "</class>\n"))
	assert.Contains(t, xml, "<subroutineDec>")
	assert.Contains(t, xml, "</subroutineDec>\n")
	assert.Contains(t, xml, "<letStatement>")
	assert.Contains(t, xml, "<returnStatement>")

	opens := strings.Count(xml, "<subroutineDec>")
	closes := strings.Count(xml, "</subroutineDec>")
	assert.Equal(t, opens, closes)
}
