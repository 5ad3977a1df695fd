package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()
	require.Equal(t, "127.0.0.1:8080", c.Addr())
	require.Equal(t, "./data", c.Storage.DBPath)
	require.Equal(t, "info", c.Logging.Level)
	require.Equal(t, "text", c.Logging.Format)
	require.Equal(t, "gemini-2.0-flash", c.AI.Model)
	require.Equal(t, 30*time.Second, c.AITimeout())
	require.Equal(t, 500, c.Lifecycle.SentMS)
	require.Equal(t, 2000, c.Lifecycle.ReadMS)
	require.Equal(t, "0 2 * * *", c.Backup.Cron)
	require.False(t, c.Backup.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumina.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: "0.0.0.0"
  port: 9090
logging:
  level: debug
  format: json
ai:
  model: gemini-1.5-pro
  timeout_seconds: 5
backup:
  enabled: true
  keep: 3
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9090", c.Addr())
	require.Equal(t, "debug", c.Logging.Level)
	require.Equal(t, "json", c.Logging.Format)
	require.Equal(t, "gemini-1.5-pro", c.AI.Model)
	require.Equal(t, 5*time.Second, c.AITimeout())
	require.True(t, c.Backup.Enabled)
	require.Equal(t, 3, c.Backup.Keep)

	// untouched sections keep their defaults
	require.Equal(t, "./data", c.Storage.DBPath)
	require.Equal(t, 1000, c.Lifecycle.DeliveredMS)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LUMINA_ADDR", "10.0.0.5")
	t.Setenv("LUMINA_PORT", "7070")
	t.Setenv("LUMINA_LOG_FORMAT", "json")
	t.Setenv("GEMINI_API_KEY", "sekret")
	t.Setenv("LUMINA_AI_MODEL", "gemini-2.5-flash")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5:7070", c.Addr())
	require.Equal(t, "json", c.Logging.Format)
	require.Equal(t, "sekret", c.AI.APIKey)
	require.Equal(t, "gemini-2.5-flash", c.AI.Model)
}

func TestEnvBadPortIgnored(t *testing.T) {
	t.Setenv("LUMINA_PORT", "tcp")
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8080, c.Server.Port)
}

func TestFlagsResolve(t *testing.T) {
	c := Default()
	f := Flags{
		Addr:   ":9999",
		DBPath: "/tmp/lumina-db",
		Set:    map[string]bool{"addr": true, "db": true},
	}
	f.Resolve(&c)
	require.Equal(t, "0.0.0.0:9999", c.Addr())
	require.Equal(t, "/tmp/lumina-db", c.Storage.DBPath)

	// unset flags never override
	c2 := Default()
	Flags{Addr: ":1", DBPath: "/x", Set: map[string]bool{}}.Resolve(&c2)
	require.Equal(t, "127.0.0.1:8080", c2.Addr())
}

func TestSplitAddr(t *testing.T) {
	host, port, ok := splitAddr("example.com:443")
	require.True(t, ok)
	require.Equal(t, "example.com", host)
	require.Equal(t, 443, port)

	_, _, ok = splitAddr("no-port-here")
	require.False(t, ok)

	_, _, ok = splitAddr("host:abc")
	require.False(t, ok)
}
