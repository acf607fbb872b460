package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithEnvVars(t *testing.T) {
	os.Setenv("KIOSK_PORT", "9090")
	os.Setenv("KIOSK_DEBUG", "true")
	os.Setenv("KIOSK_CORPUS_DIR", "/srv/kiosk/corpus")
	os.Setenv("KIOSK_OPENAI_API_KEY", "sk-test")
	os.Setenv("KIOSK_REBUILD_INTERVAL", "168h")
	defer func() {
		os.Unsetenv("KIOSK_PORT")
		os.Unsetenv("KIOSK_DEBUG")
		os.Unsetenv("KIOSK_CORPUS_DIR")
		os.Unsetenv("KIOSK_OPENAI_API_KEY")
		os.Unsetenv("KIOSK_REBUILD_INTERVAL")
	}()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/srv/kiosk/corpus", cfg.CorpusDir)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 7*24*time.Hour, cfg.RebuildInterval)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, IndexBackendFile, cfg.IndexBackend)
	assert.Equal(t, "data/vectorstore", cfg.IndexDir)
	assert.Equal(t, 250, cfg.ChunkSize)
	assert.Equal(t, 25, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.RetrievalTopK)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, "kiosk-corpus", cfg.S3Bucket)
}

func TestLoad_RejectsOverlapNotSmallerThanSize(t *testing.T) {
	os.Setenv("KIOSK_CHUNK_SIZE", "100")
	os.Setenv("KIOSK_CHUNK_OVERLAP", "100")
	defer func() {
		os.Unsetenv("KIOSK_CHUNK_SIZE")
		os.Unsetenv("KIOSK_CHUNK_OVERLAP")
	}()

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestLoad_PostgresBackendRequiresDatabaseURL(t *testing.T) {
	os.Setenv("KIOSK_INDEX_BACKEND", "postgres")
	defer os.Unsetenv("KIOSK_INDEX_BACKEND")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "KIOSK_DATABASE_URL")
}

func TestHasS3(t *testing.T) {
	cfg := &Config{
		S3Endpoint:  "http://localhost:9000",
		S3AccessKey: "key",
		S3SecretKey: "secret",
	}
	assert.True(t, cfg.HasS3())

	cfg.S3Endpoint = ""
	assert.False(t, cfg.HasS3())
}

func TestHasOpenAI(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "sk-test"}
	assert.True(t, cfg.HasOpenAI())

	cfg.OpenAIAPIKey = ""
	assert.False(t, cfg.HasOpenAI())
}
