package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("none yields a nil provider", func(t *testing.T) {
		p, err := NewProvider(Config{Provider: ProviderNone})
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("empty name means disabled", func(t *testing.T) {
		p, err := NewProvider(Config{})
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("unknown name is a configuration error", func(t *testing.T) {
		_, err := NewProvider(Config{Provider: "palm"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown extract provider")
	})

	t.Run("openai requires an api key", func(t *testing.T) {
		_, err := NewProvider(Config{Provider: ProviderOpenAI})
		assert.Error(t, err)
	})

	t.Run("gemini requires an api key", func(t *testing.T) {
		_, err := NewProvider(Config{Provider: ProviderGemini})
		assert.Error(t, err)
	})

	t.Run("openai constructs with a key", func(t *testing.T) {
		p, err := NewProvider(Config{Provider: ProviderOpenAI, APIKey: "sk-test"})
		require.NoError(t, err)
		assert.NotNil(t, p)
	})
}

func TestRegister_AllowsCustomProviders(t *testing.T) {
	Register("echo", func(cfg Config) (Provider, error) {
		return echoProvider{}, nil
	})

	p, err := NewProvider(Config{Provider: "echo"})
	require.NoError(t, err)
	require.NotNil(t, p)

	reply, err := p.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "user", reply)
}

type echoProvider struct{}

func (echoProvider) Complete(_ context.Context, _, user string) (string, error) {
	return user, nil
}
