package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
http:
  port: 9090
  timeout: 15s

database:
  host: db.internal
  port: "3306"
  user: svc
  password: secret
  name: advertisements

redis:
  addr: redis.internal:6379
  password: ""
  db: 1

tracing:
  endpoint: otel.internal:4318
  service_name: advertisement-service
  environment: test
  version: 1.0.0

logger:
  level: debug
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfig), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "advertisements", cfg.Database.Name)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "advertisement-service", cfg.Tracing.ServiceName)
	assert.Equal(t, "debug", cfg.Logger.Level)
}
