package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsTriviallyShort(t *testing.T) {
	require.True(t, isTriviallyShort("one two"))
	require.True(t, isTriviallyShort(""))
	require.False(t, isTriviallyShort("one two three"))
}

func TestHTMLToTextStripsTagsAndKeepsImgAlt(t *testing.T) {
	out := htmlToText(`<p>Hello <b>world</b></p><img alt="a diagram">`)
	require.Contains(t, out, "Hello world")
	require.Contains(t, out, "a diagram")
}

func TestHTMLToTextCollapsesWhitespace(t *testing.T) {
	out := htmlToText("<p>a\n\n  b</p>")
	require.Equal(t, "a b", out)
}
