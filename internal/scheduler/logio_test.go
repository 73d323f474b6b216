package scheduler

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamJobOutputPrefixesEachLine(t *testing.T) {
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	r := strings.NewReader("line one\nline two\n")

	require.NoError(t, streamJobOutput("ingest", r, w, nil))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "[ingest] line one")
	require.Contains(t, lines[1], "[ingest] line two")
}

func TestStreamJobOutputFlushesTrailingLineWithoutNewline(t *testing.T) {
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	r := strings.NewReader("incomplete tail")

	require.NoError(t, streamJobOutput("tag", r, w, nil))
	require.Contains(t, out.String(), "[tag] incomplete tail")
}

func TestStreamJobOutputInvokesOnLineCallback(t *testing.T) {
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	r := strings.NewReader("first\nsecond\n")

	var captured []string
	require.NoError(t, streamJobOutput("ingest", r, w, func(job, line string) {
		captured = append(captured, job+":"+line)
	}))
	require.Equal(t, []string{"ingest:first", "ingest:second"}, captured)
}

func TestAppendStderrPrefixesEachLine(t *testing.T) {
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	appendStderr(w, []byte("boom\nsecond failure\n"))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Equal(t, "[ERROR] boom", lines[0])
	require.Equal(t, "[ERROR] second failure", lines[1])
}
