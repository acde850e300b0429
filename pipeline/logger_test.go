package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogWritesFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	logger, closer, err := InitLog(LogOptions{Level: logrus.InfoLevel, Dir: dir, Stderr: &console})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, closer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "run-"))

	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Batch Start (UTC)")
	assert.Contains(t, string(raw), "hello")
	assert.Contains(t, console.String(), "hello")
}

func TestSetGlobalLoggerIgnoresNil(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	l := quietLogger()
	SetGlobalLogger(l)
	assert.Same(t, l, globalLogger)
	SetGlobalLogger(nil)
	assert.Same(t, l, globalLogger)
}
