package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8201", cfg.Listen)
	assert.Equal(t, "http://localhost:8201", cfg.ServerURL)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NotNil(t, cfg.MongoDB)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URL)
	assert.Equal(t, "animeloop", cfg.MongoDB.Database)
	require.NotNil(t, cfg.Bot)
	assert.False(t, cfg.Bot.Enabled)
	assert.Equal(t, "0 */6 * * *", cfg.Bot.Schedule)
	assert.Equal(t, "#Animeloop", cfg.Bot.Hashtag)
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
listen: 127.0.0.1:9000
server_url: https://animeloop.org/
cdn_url: https://cdn.animeloop.org
api_key: secret
mongodb:
  url: mongodb://db:27017
  database: loops
storage:
  data_dir: /srv/animeloop/data
bot:
  enabled: true
  webhook_url: "  https://ntfy.sh/animeloop "
  topic: animeloop
`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	// Trailing slash and stray whitespace are trimmed.
	assert.Equal(t, "https://animeloop.org", cfg.ServerURL)
	assert.Equal(t, "https://ntfy.sh/animeloop", cfg.Bot.WebhookURL)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "loops", cfg.MongoDB.Database)
	assert.Equal(t, "/srv/animeloop/data", cfg.Storage.DataDir)
}

func TestLoadRejectsEnabledBotWithoutWebhook(t *testing.T) {
	_, err := Load(writeConfig(t, `
bot:
  enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook_url")
}

func TestLoadRejectsMissingDatabase(t *testing.T) {
	_, err := Load(writeConfig(t, `
mongodb:
  url: mongodb://db:27017
  database: ""
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongodb.database")
}
