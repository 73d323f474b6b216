package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubOracle struct {
	calls int
	err   error
	value any
}

func (s *stubOracle) Ask(ctx context.Context, systemPrompt, userPrompt string, schema OutputSchema, retries int) (any, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.value, nil
}

func TestFallbackOracleUsesPrimaryWhenItSucceeds(t *testing.T) {
	primary := &stubOracle{value: true}
	secondary := &stubOracle{value: false}
	f := NewFallbackOracle(primary, secondary)

	v, err := f.Ask(context.Background(), "sys", "usr", SchemaBool, 1)
	require.NoError(t, err)
	require.Equal(t, true, v)
	require.Equal(t, 0, secondary.calls)
}

func TestFallbackOracleFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &stubOracle{err: errors.New("exhausted")}
	secondary := &stubOracle{value: []string{"#malware"}}
	f := NewFallbackOracle(primary, secondary)

	v, err := f.Ask(context.Background(), "sys", "usr", SchemaStringList, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"#malware"}, v)
	require.Equal(t, 1, secondary.calls)
}

func TestFallbackOracleWithoutSecondarySurfacesPrimaryError(t *testing.T) {
	primary := &stubOracle{err: errors.New("down")}
	f := NewFallbackOracle(primary, nil)

	_, err := f.Ask(context.Background(), "sys", "usr", SchemaBool, 1)
	require.Error(t, err)
}
