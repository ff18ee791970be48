package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  port: 8080
  read_timeout: 30s
  write_timeout: 300s
store:
  path: chat.db
bedrock:
  region: us-east-1
  timeout: 60s
  max_tokens: 4096
chat:
  max_turns: 3
search:
  enabled: true
  headless: true
  max_results: 3
  token_budget: 4000
  page_timeout: 15s
`

func TestLoadFromBytes_Valid(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, "chat.db", cfg.Store.Path)
	assert.Equal(t, "us-east-1", cfg.Bedrock.Region)
	assert.Equal(t, 3, cfg.Chat.MaxTurns)
	assert.True(t, cfg.Search.Enabled)
}

func TestLoadFromBytes_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_CHAT_REGION", "eu-west-1")

	yaml := `
server:
  port: ${TEST_CHAT_PORT:-9090}
  read_timeout: 10s
  write_timeout: 10s
store:
  path: ${TEST_CHAT_DB:-fallback.db}
bedrock:
  region: ${TEST_CHAT_REGION}
`
	cfg, err := LoadFromBytes([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port) // default applied
	assert.Equal(t, "fallback.db", cfg.Store.Path)
	assert.Equal(t, "eu-west-1", cfg.Bedrock.Region) // env wins
}

func TestLoadFromBytes_ProviderOverrides(t *testing.T) {
	yaml := `
server:
  port: 8080
  read_timeout: 10s
  write_timeout: 10s
store:
  path: chat.db
bedrock:
  region: us-east-1
  overrides:
    amazon:
      textGenerationConfig.temperature: 0.5
`
	cfg, err := LoadFromBytes([]byte(yaml))
	require.NoError(t, err)

	require.Contains(t, cfg.Bedrock.Overrides, "amazon")
	assert.Equal(t, 0.5, cfg.Bedrock.Overrides["amazon"]["textGenerationConfig.temperature"])
}

func TestLoadFromBytes_BadDuration(t *testing.T) {
	_, err := LoadFromBytes([]byte(`
server:
  port: 8080
  read_timeout: soon
  write_timeout: 10s
store:
  path: chat.db
bedrock:
  region: us-east-1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestValidate_MissingPort(t *testing.T) {
	_, err := LoadFromBytes([]byte(`
store:
  path: chat.db
bedrock:
  region: us-east-1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidate_MissingStorePath(t *testing.T) {
	_, err := LoadFromBytes([]byte(`
server:
  port: 8080
  read_timeout: 10s
  write_timeout: 10s
bedrock:
  region: us-east-1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.path")
}

func TestValidate_RegionRequiredWithoutEndpoint(t *testing.T) {
	_, err := LoadFromBytes([]byte(`
server:
  port: 8080
  read_timeout: 10s
  write_timeout: 10s
store:
  path: chat.db
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bedrock.region")
}

func TestValidate_EndpointWithoutRegionAllowed(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
server:
  port: 8080
  read_timeout: 10s
  write_timeout: 10s
store:
  path: chat.db
bedrock:
  endpoint: http://localhost:9999
`))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", cfg.Bedrock.Endpoint)
}
