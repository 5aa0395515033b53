package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestWithLevel(t *testing.T) {
	l := logrus.New()

	WithLevel("debug")(l)
	require.Equal(t, logrus.DebugLevel, l.GetLevel())
	require.True(t, l.ReportCaller)

	WithLevel("warn")(l)
	require.Equal(t, logrus.WarnLevel, l.GetLevel())
	require.False(t, l.ReportCaller)

	WithLevel("not-a-level")(l)
	require.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestWithOutputAndNullLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	WithOutput(&buf)(l)
	l.Info("hello")
	require.Contains(t, buf.String(), "hello")

	buf.Reset()
	WithNullLogger()(l)
	l.Info("dropped")
	require.Empty(t, buf.String())
}

func TestFormatFilePath(t *testing.T) {
	require.Equal(t, "gossip/pump.go", formatFilePath("/root/module/gossip/pump.go", 2))
	require.Equal(t, "pump.go", formatFilePath("pump.go", 3))
}

func TestWithFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	l := logrus.New()
	WithFileOutput(path)(l)
	l.Info("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "to file")
}
