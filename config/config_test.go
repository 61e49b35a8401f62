package config

import (
	"testing"
	"time"

	"inference-gateway/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HF_API_TOKEN", "hf_test")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendHuggingFace, cfg.ProviderBackend)
	assert.Equal(t, 60*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, models.Size{Width: 350, Height: 350}, cfg.DisplaySize)
	assert.Equal(t, 1024, cfg.ObserverBuffer)
	require.Len(t, cfg.Providers, len(models.AllKinds))
	assert.Equal(t, "facebook/detr-resnet-50", cfg.Providers[models.KindObjectDetection].Model)
	assert.Equal(t, "hf_test", cfg.Providers[models.KindTranslate].Token)
	assert.Equal(t,
		"https://api-inference.huggingface.co/models/openai/whisper-large-v3",
		cfg.Providers[models.KindSpeechToText].URL())
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HF_API_TOKEN", "hf_test")
	t.Setenv("HF_ENDPOINT", "http://localhost:9000/models/")
	t.Setenv("HF_MODEL_OBJECT_DETECTION", "hustvl/yolos-tiny")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("PROVIDER_MAX_RETRIES", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("HISTORY_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, "http://localhost:9000/models/hustvl/yolos-tiny", cfg.Providers[models.KindObjectDetection].URL())
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.HistoryEnabled)
}

func TestValidate(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		t.Setenv("HF_API_TOKEN", "")
		cfg := Load()
		assert.ErrorContains(t, cfg.Validate(), "HF_API_TOKEN")
	})

	t.Run("stub backend needs no token", func(t *testing.T) {
		t.Setenv("HF_API_TOKEN", "")
		t.Setenv("PROVIDER_BACKEND", BackendStub)
		assert.NoError(t, Load().Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("PROVIDER_BACKEND", "replicate")
		assert.Error(t, Load().Validate())
	})

	t.Run("zero display", func(t *testing.T) {
		t.Setenv("PROVIDER_BACKEND", BackendStub)
		t.Setenv("DISPLAY_WIDTH", "0")
		assert.ErrorContains(t, Load().Validate(), "display size")
	})
}

func TestModelEnvKey(t *testing.T) {
	assert.Equal(t, "HF_MODEL_VISUAL_QA", modelEnvKey(models.KindVisualQA))
	assert.Equal(t, "HF_MODEL_TEXT_TO_IMAGE", modelEnvKey(models.KindTextToImage))
}
