package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectHints(t *testing.T, content string) []BlockHint {
	t.Helper()

	it := newBlockIter(content)
	var hints []BlockHint
	for {
		res := it.Next()
		if res == nil {
			break
		}
		require.Nil(t, res.Err, "unexpected lex error for %q", content)
		hints = append(hints, res.Hint)
	}
	return hints
}

func TestBlockIterTextOnly(t *testing.T) {
	hints := collectHints(t, "just plain text")
	assert.Equal(t, []BlockHint{HintText}, hints)
}

func TestBlockIterTextThenVar(t *testing.T) {
	hints := collectHints(t, "hello {{NAME}}")
	assert.Equal(t, []BlockHint{HintText, HintVar}, hints)
}

func TestBlockIterNestedVarBlockBalancesBraces(t *testing.T) {
	// The if-expression's own {{VAR}} block is nested inside the outer
	// {{@if ...}} block; the lexer must find the *matching* closing }} for
	// the outer block, not the first }} it encounters.
	hints := collectHints(t, `{{@if {{NAME}} == "bob"}}`)
	assert.Equal(t, []BlockHint{HintIfStart}, hints)
}

func TestBlockIterEscapedBlock(t *testing.T) {
	hints := collectHints(t, "{{{ raw }}}")
	assert.Equal(t, []BlockHint{HintEscaped}, hints)
}

func TestBlockIterCommentBlock(t *testing.T) {
	hints := collectHints(t, "{{!-- note --}}")
	assert.Equal(t, []BlockHint{HintComment}, hints)
}

func TestBlockIterUnclosedBlockRecoversWithError(t *testing.T) {
	it := newBlockIter("{{unclosed")

	res := it.Next()
	require.NotNil(t, res)
	assert.NotNil(t, res.Err)

	// After the erroneous opening is skipped, the rest of the content is
	// lexed normally as text, and the iterator then terminates cleanly
	// rather than looping forever.
	res = it.Next()
	require.NotNil(t, res)
	require.Nil(t, res.Err)
	assert.Equal(t, HintText, res.Hint)

	res = it.Next()
	assert.Nil(t, res)
}

func TestBlockIterUnclosedEscapedRecovers(t *testing.T) {
	it := newBlockIter("{{{ raw")

	res := it.Next()
	require.NotNil(t, res)
	assert.NotNil(t, res.Err)
}

func TestParseVarWithDefaultEnvs(t *testing.T) {
	v, err := parseVar("NAME", 2)
	require.NoError(t, err)
	assert.Equal(t, []VarEnv{EnvProfile, EnvDotfile}, v.Envs.Envs())
	assert.Equal(t, "NAME", v.Name.Slice("{{NAME}}"))
}

func TestParseVarRejectsInvalidSymbol(t *testing.T) {
	_, err := parseVar("BAD-NAME", 2)
	assert.Error(t, err)
}

func TestParseVarRejectsEmptyName(t *testing.T) {
	_, err := parseVar("   ", 2)
	assert.Error(t, err)
}

func TestParseIfOpPicksEarliestOperator(t *testing.T) {
	op, ok := parseIfOp(` == "a" != "b"`)
	require.True(t, ok)
	assert.Equal(t, OpEq, op)
}

func TestParseOtherExtractsQuotedLiteral(t *testing.T) {
	sp, ok := parseOther(` == "bob" `, 0)
	require.True(t, ok)
	assert.Equal(t, "bob", sp.Slice(` == "bob" `))
}
