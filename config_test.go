package mqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":1883", config.Listen)
	assert.Equal(t, ":9090", config.MetricsListen)
	assert.Equal(t, 100, config.MaxConnections)
	assert.Equal(t, uint32(256*1024), config.MaxPacketSize)
	assert.Equal(t, 10*time.Second, config.WriteTimeout)
	assert.Equal(t, "info", config.LogLevel)
	assert.Empty(t, config.DataDir)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqlite.yml")
	data := []byte("listen: \"127.0.0.1:11883\"\nmax_connections: 5\nlog_level: debug\ndata_dir: /var/lib/mqlite\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:11883", config.Listen)
	assert.Equal(t, 5, config.MaxConnections)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "/var/lib/mqlite", config.DataDir)

	// Keys not present in the file keep their defaults.
	assert.Equal(t, ":9090", config.MetricsListen)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	assert.NoError(t, config.Validate())

	config.Listen = ""
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.MaxConnections = -1
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.ConnectRate = -0.5
	assert.Error(t, config.Validate())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLogLevel("ERROR"))
	assert.Equal(t, LogLevelNone, ParseLogLevel("off"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("bogus"))
}
