package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[general]
verbosity_level = 2

[google]
client_id = "id"
client_secret = "secret"

[login]
provider = "caldav"
server = "home"
calendar_id = "https://dav.example.com/cal/me/work/"
username = "me"
gmt_offset = 120

[caldav_servers.home]
name = "Home"
server_url = "https://dav.example.com"
password = "pw"
`), 0o600))

	config, _, err := readConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, config.General.VerbosityLevel)
	assert.Equal(t, defaultDBName, config.General.Database)
	assert.Equal(t, "id", config.Google.ClientID)
	assert.Equal(t, "caldav", config.Login.Provider)
	assert.Equal(t, 120, config.Login.GMTOffset)
	require.Contains(t, config.CalDAVs, "home")
	assert.Equal(t, "https://dav.example.com", config.CalDAVs["home"].ServerURL)
}

func TestReadConfig_MissingFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GCALWEEK_PASSWORD", "from-env")
	t.Setenv("GCALWEEK_DB", "other.db")
	t.Setenv("GCALWEEK_VERBOSITY", "1")

	config, configDir, err := readConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Empty(t, configDir)
	assert.Equal(t, "google", config.Login.Provider)
	assert.Equal(t, "from-env", config.Login.Password)
	assert.Equal(t, "other.db", config.General.Database)
	assert.Equal(t, 1, config.General.VerbosityLevel)
}

func TestReadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(path, []byte("[general\n"), 0o600))

	_, _, err := readConfig(path)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer
	log := newLogger(&Config{}, &out)
	assert.Equal(t, logrus.WarnLevel, log.Logger.GetLevel())

	log = newLogger(&Config{General: GeneralConfig{VerbosityLevel: 3, LogFormat: "json"}}, &out)
	assert.Equal(t, logrus.DebugLevel, log.Logger.GetLevel())
	log.Info("hello")
	assert.Contains(t, out.String(), `"msg":"hello"`)
	assert.Contains(t, out.String(), `"app":"gcalweek"`)
}

func TestNormalizeWeekday(t *testing.T) {
	assert.Equal(t, "Monday", normalizeWeekday("monday"))
	assert.Equal(t, "Thursday", normalizeWeekday("th"))
	assert.Equal(t, "Saturday", normalizeWeekday("SAT"))
	assert.Equal(t, "Funday", normalizeWeekday("Funday"))
	assert.Equal(t, "s", normalizeWeekday("s"))
}
