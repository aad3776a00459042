package shared

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SG_INT", "42")
	t.Setenv("SG_BAD_INT", "forty")
	t.Setenv("SG_BOOL", "true")
	t.Setenv("SG_DURATION", "90s")
	t.Setenv("SG_FLOAT", "2.5")
	t.Setenv("SG_LIST", " a, b ,,c ")

	assert.Equal(t, "fallback", GetEnv("SG_MISSING", "fallback"))
	assert.Equal(t, 42, GetIntEnv("SG_INT", 1))
	assert.Equal(t, 1, GetIntEnv("SG_BAD_INT", 1))
	assert.True(t, GetBoolEnv("SG_BOOL", false))
	assert.Equal(t, 90*time.Second, GetDurationEnv("SG_DURATION", time.Second))
	assert.Equal(t, 2.5, GetFloatEnv("SG_FLOAT", 0))
	assert.Equal(t, []string{"a", "b", "c"}, GetStringSliceEnv("SG_LIST", nil))
	assert.Equal(t, []string{"x"}, GetStringSliceEnv("SG_MISSING", []string{"x"}))
}

func TestLoadServiceConfigRequiresMongo(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("CONFIG_FILE", "")

	_, err := LoadServiceConfig("grade-service")
	require.Error(t, err)
}

func TestLoadServiceConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smartgrade.yaml")
	content := `
service:
  environment: staging
  log_level: debug
mongodb:
  uri: mongodb://file-host:27017
  database: from_file
security:
  jwt_expiration_hours: 6
mail:
  from_name: Registrar
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_DB_NAME", "from_env")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("JWT_EXPIRATION_HOURS", "")
	t.Setenv("SERVICE_PORT", "")

	cfg, err := LoadServiceConfig("grade-service")
	require.NoError(t, err)

	assert.Equal(t, "mongodb://file-host:27017", cfg.MongoDB.URI)
	assert.Equal(t, "from_env", cfg.MongoDB.Database, "env overrides file")
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 6, cfg.Security.JWTExpirationHours)
	assert.Equal(t, "Registrar", cfg.Mail.FromName)
	assert.Equal(t, DefaultGradeServicePort, cfg.ServicePort)
	assert.NoError(t, ValidateServiceConfig(cfg))
}

func TestGatewayConfigRequiresSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadGatewayConfig()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PUBLIC_URL", "https://grades.example.edu/")
	cfg, err := LoadGatewayConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://grades.example.edu", cfg.PublicURL)
	assert.NoError(t, ValidateGatewayConfig(cfg))
}

func TestReadConfigFileMissing(t *testing.T) {
	_, err := ReadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	cfg, err := ReadConfigFile("")
	require.NoError(t, err)
	assert.Empty(t, cfg.MongoDB.URI)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}
