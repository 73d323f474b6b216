package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
}

func TestParseQueryPlainWordsFormASingleTermNode(t *testing.T) {
	q, err := ParseQuery("critical exploit", fixedNow())
	require.NoError(t, err)
	require.Equal(t, KindTerm, q.AST.Kind)
	require.Equal(t, "critical exploit", q.AST.Text)
}

func TestParseQueryQuotedPhraseIsExact(t *testing.T) {
	q, err := ParseQuery(`"zero day"`, fixedNow())
	require.NoError(t, err)
	require.Equal(t, KindExact, q.AST.Kind)
	require.Equal(t, "zero day", q.AST.Text)
}

func TestParseQueryOrSplitsIntoDisjuncts(t *testing.T) {
	q, err := ParseQuery("foo OR bar", fixedNow())
	require.NoError(t, err)
	require.Equal(t, KindOr, q.AST.Kind)
	require.Len(t, q.AST.Children, 2)
	require.ElementsMatch(t, []string{"foo", "bar"}, []string{q.AST.Children[0].Text, q.AST.Children[1].Text})
}

func TestParseQueryAdjacencyIsAndOfQuotedAndWord(t *testing.T) {
	q, err := ParseQuery(`"FooServer" CVE-2025-1234`, fixedNow())
	require.NoError(t, err)
	require.Equal(t, KindAnd, q.AST.Kind)
	require.Len(t, q.AST.Children, 2)
}

func TestParseQueryExplicitAndKeywordJoinsFactors(t *testing.T) {
	q, err := ParseQuery(`"FooServer" AND CVE-2025-1234`, fixedNow())
	require.NoError(t, err)
	require.Equal(t, KindAnd, q.AST.Kind)
	require.Len(t, q.AST.Children, 2)
	require.ElementsMatch(t, []string{"fooserver", "cve-2025-1234"}, []string{q.AST.Children[0].Text, q.AST.Children[1].Text})
}

func TestParseQueryParensOverrideOrPrecedence(t *testing.T) {
	q, err := ParseQuery("(foo OR bar) baz", fixedNow())
	require.NoError(t, err)
	require.Equal(t, KindAnd, q.AST.Kind)
	require.Equal(t, KindOr, q.AST.Children[0].Kind)
}

func TestExtractCommandsDefaultsFromAndToWindow(t *testing.T) {
	_, cmds := ExtractCommands("exploit kit", fixedNow())
	require.False(t, cmds.Strict)
	require.Equal(t, defaultMinScore, cmds.MinScore)
	require.Equal(t, resultsMax, cmds.Count)
	require.Equal(t, fixedNow(), cmds.To)
	require.Equal(t, fixedNow().AddDate(0, 0, -defaultWindowDays), cmds.From)
}

func TestExtractCommandsAgeSetsFromAndTo(t *testing.T) {
	_, cmds := ExtractCommands("exploit !age:30", fixedNow())
	require.Equal(t, fixedNow().AddDate(0, 0, -30), cmds.From)
	require.Equal(t, fixedNow(), cmds.To)
}

func TestExtractCommandsDistinctDefaultsTo90(t *testing.T) {
	_, cmds := ExtractCommands("exploit !distinct", fixedNow())
	require.True(t, cmds.Distinct)
	require.Equal(t, 90, cmds.DistinctN)
}

func TestExtractCommandsDistinctWithExplicitN(t *testing.T) {
	_, cmds := ExtractCommands("exploit !distinct:95", fixedNow())
	require.Equal(t, 95, cmds.DistinctN)
}

func TestExtractCommandsCountClampedToResultsMax(t *testing.T) {
	_, cmds := ExtractCommands("exploit !count:500", fixedNow())
	require.Equal(t, resultsMax, cmds.Count)
}

func TestHardWindowExtendsSoftWindowByHalf(t *testing.T) {
	_, cmds := ExtractCommands("exploit !age:30", fixedNow())
	from, to := cmds.HardWindow()
	require.True(t, from.Before(cmds.From))
	require.True(t, to.After(cmds.To))
}

func TestHardWindowEqualsSoftUnderStrict(t *testing.T) {
	_, cmds := ExtractCommands("exploit !age:30 !strict", fixedNow())
	from, to := cmds.HardWindow()
	require.Equal(t, cmds.From, from)
	require.Equal(t, cmds.To, to)
}

func TestCanonicalQueryRoundTripsToSameAST(t *testing.T) {
	q, err := ParseQuery(`"FooServer" CVE-2025-1234 !age:30`, fixedNow())
	require.NoError(t, err)
	canonical := q.CanonicalQuery()

	q2, err := ParseQuery(canonical, fixedNow())
	require.NoError(t, err)
	require.Equal(t, q.AST.String(), q2.AST.String())
	require.Equal(t, q.Commands.From, q2.Commands.From)
	require.Equal(t, q.Commands.To, q2.Commands.To)
}

func TestSelectorDetectsUserAndSourcePrefix(t *testing.T) {
	q, err := ParseQuery("user:alice", fixedNow())
	require.NoError(t, err)
	kind, prefix, ok := q.AST.Selector()
	require.True(t, ok)
	require.Equal(t, "user", kind)
	require.Equal(t, "alice", prefix)
}
