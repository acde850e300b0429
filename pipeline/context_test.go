package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyLoadsOnce(t *testing.T) {
	calls := 0
	l := NewLazy(func() (any, error) {
		calls++
		return []float64{1, 2}, nil
	})

	for i := 0; i < 3; i++ {
		v, err := l.Get()
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, v)
	}
	assert.Equal(t, 1, calls)
}

func TestLazyKeepsError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	l := NewLazy(func() (any, error) {
		calls++
		return nil, boom
	})

	_, err := l.Get()
	assert.ErrorIs(t, err, boom)
	_, err = l.Get()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDataContextValue(t *testing.T) {
	dc := NewDataContext()
	dc.Set("plain", 3)
	dc.Set("lazy", NewLazy(func() (any, error) { return "loaded", nil }))

	v, err := dc.Value("plain")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	raw, ok := dc.Get("lazy")
	require.True(t, ok)
	assert.IsType(t, &Lazy{}, raw)

	s, err := Lookup[string](dc, "lazy")
	require.NoError(t, err)
	assert.Equal(t, "loaded", s)

	_, err = dc.Value("missing")
	assert.Error(t, err)

	_, err = Lookup[string](dc, "plain")
	assert.ErrorContains(t, err, "has type int")

	dc.Set("plain", 4)
	assert.Equal(t, []string{"lazy", "plain"}, dc.Keys())
	assert.Equal(t, 2, dc.Len())
}
