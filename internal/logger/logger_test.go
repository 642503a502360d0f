package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "tool dispatched",
		Data:    logrus.Fields{"tool": "search_web", "args": "query=string(4)"},
	}
	out, err := (&LineFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2025-01-02 03:04:05] [WARN] [] tool dispatched args=query=string(4) tool=search_web\n", string(out))
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	log, err := New("debug", path)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.Debug("hello file")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello file"))
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	log, err := New("chatty", "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
