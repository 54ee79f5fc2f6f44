package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenTexts(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func TestResolveStandardLowercasesAndDropsStopwords(t *testing.T) {
	reg := NewRegistry(nil)
	toks := reg.Resolve("standard")("The Quick Fox")
	require.Equal(t, []string{"quick", "fox"}, tokenTexts(toks))
}

func TestResolveEnglishDropsStopwordsAndStems(t *testing.T) {
	reg := NewRegistry(nil)
	toks := reg.Resolve("english")("The foxes are running")
	require.Equal(t, []string{"fox", "runn"}, tokenTexts(toks))
}

func TestResolveKeywordReturnsOneToken(t *testing.T) {
	reg := NewRegistry(nil)
	toks := reg.Resolve("keyword")("Hello World")
	require.Equal(t, []string{"Hello World"}, tokenTexts(toks))
}

func TestResolveUnknownNameFallsBackToStandard(t *testing.T) {
	reg := NewRegistry(nil)
	toks := reg.Resolve("de.microsoft")("Der Schnelle Fuchs")
	require.Equal(t, []string{"der", "schnelle", "fuchs"}, tokenTexts(toks))
}

func TestResolvePrefersCustomAnalyzerOverBuiltin(t *testing.T) {
	custom := func(string) []Token { return []Token{{Text: "custom"}} }
	reg := NewRegistry(map[string]Func{"mine": custom})
	toks := reg.Resolve("mine")("anything")
	require.Equal(t, []string{"custom"}, tokenTexts(toks))
}

func TestResolveNormalizerDefaultsToLowercase(t *testing.T) {
	reg := NewRegistry(nil)
	require.Equal(t, "abc", reg.ResolveNormalizer("")("ABC"))
	require.Equal(t, "ABC", reg.ResolveNormalizer("keyword")("ABC"))
}

func TestEdgeGramsProducesEveryPrefixLength(t *testing.T) {
	require.Equal(t, []string{"se", "sea"}, EdgeGrams("Sea", 2, 10))
}

func TestEdgeGramsShorterThanMinGramReturnsWholeWord(t *testing.T) {
	require.Equal(t, []string{"a"}, EdgeGrams("A", 2, 10))
}
