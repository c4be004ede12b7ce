package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copysmith-ai-api/internal/config"
)

func testLLMConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "openai",
			Providers: map[string]config.ProviderConfig{
				"openai": {Model: "gpt-4o-mini"},
			},
		},
	}
}

func TestGetUnknownProviderFails(t *testing.T) {
	p := NewEinoProvider(testLLMConfig())

	_, _, _, err := p.get(context.Background(), "no-such-provider")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-provider")
}

func TestGetEmptyNameFallsBackToDefault(t *testing.T) {
	cfg := testLLMConfig()
	// 默认 provider 未在配置中声明时，回落路径同样报未找到
	cfg.LLM.Providers = map[string]config.ProviderConfig{}
	p := NewEinoProvider(cfg)

	_, _, _, err := p.get(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
}

func TestGetNoDefaultConfigured(t *testing.T) {
	p := NewEinoProvider(&config.Config{})

	_, _, _, err := p.get(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "default provider")
}
