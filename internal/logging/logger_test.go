package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace":   TRACE,
		"DEBUG":   DEBUG,
		"":        INFO,
		"warning": WARN,
		" error ": ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerRespectsConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{ConsoleLevel: WARN, FileLevel: ERROR, Console: &buf})
	defer Configure(Options{ConsoleLevel: INFO, FileLevel: DEBUG})

	l, err := NewLogger("test")
	require.NoError(t, err)

	l.Info("скрыто")
	l.Warn("видно %d", 42)

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[WARN] [test] видно 42")

	l.SetLevels(TRACE, ERROR)
	l.Trace("теперь видно")
	assert.True(t, strings.Contains(buf.String(), "теперь видно"))
	assert.NoError(t, l.Close())
}

func TestLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	Configure(Options{Dir: dir, ConsoleLevel: ERROR, FileLevel: DEBUG, Console: &bytes.Buffer{}})
	defer Configure(Options{ConsoleLevel: INFO, FileLevel: DEBUG})

	l, err := NewLogger("filetest")
	require.NoError(t, err)
	l.Debug("в файл")
	require.NoError(t, l.Close())
	// Повторное закрытие безопасно
	require.NoError(t, l.Close())
}

func TestManagerSetLogLevel(t *testing.T) {
	lm := &LoggerManager{loggers: make(map[string]*Logger)}
	assert.Error(t, lm.SetLogLevel("missing", INFO, INFO))

	_, err := lm.GetLogger("b")
	require.NoError(t, err)
	_, err = lm.GetLogger("a")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, lm.ListComponents())
	assert.NoError(t, lm.SetLogLevel("a", DEBUG, DEBUG))
	assert.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}
