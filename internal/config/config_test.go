package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `{
	"port": 8080,
	"database": {"host": "localhost", "dbname": "inkpost"},
	"jwt_secret": "s3cret",
	"anonymous_author_id": "a0000000000000000000000000000000",
	"mail": {"host": "smtp.example.com", "from": "noreply@example.com"}
}`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	require.Equal(t, 24, cfg.JWTTTLHours)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "postgres", cfg.EphemeralStore.Type)
	require.True(t, cfg.SecureCookies())
}

func TestLoadMissingRequiredFields(t *testing.T) {
	cases := map[string]string{
		"no port":       `{"database": {"host": "h", "dbname": "d"}, "jwt_secret": "s", "anonymous_author_id": "a", "mail": {"host": "m", "from": "f"}}`,
		"no database":   `{"port": 1, "jwt_secret": "s", "anonymous_author_id": "a", "mail": {"host": "m", "from": "f"}}`,
		"no jwt secret": `{"port": 1, "database": {"host": "h", "dbname": "d"}, "anonymous_author_id": "a", "mail": {"host": "m", "from": "f"}}`,
		"no anon id":    `{"port": 1, "database": {"host": "h", "dbname": "d"}, "jwt_secret": "s", "mail": {"host": "m", "from": "f"}}`,
		"no mail":       `{"port": 1, "database": {"host": "h", "dbname": "d"}, "jwt_secret": "s", "anonymous_author_id": "a"}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestLoadBadEphemeralStoreType(t *testing.T) {
	content := `{
		"port": 8080,
		"database": {"dsn": "postgres://x"},
		"jwt_secret": "s",
		"anonymous_author_id": "a",
		"mail": {"host": "m", "from": "f"},
		"ephemeral_store": {"type": "redis"}
	}`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
}

func TestLoadCookieSecureOverride(t *testing.T) {
	content := `{
		"port": 8080,
		"database": {"dsn": "postgres://x"},
		"jwt_secret": "s",
		"anonymous_author_id": "a",
		"mail": {"host": "m", "from": "f"},
		"cookie_secure": false
	}`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.False(t, cfg.SecureCookies())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
