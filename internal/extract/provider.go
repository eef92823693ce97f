package extract

import (
	"context"
	"fmt"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Provider is one LLM backend able to answer a system+user prompt pair with
// a JSON text reply.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config selects and parameterizes a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
}

// Factory builds a Provider from config.
type Factory func(cfg Config) (Provider, error)

var factories = map[string]Factory{}

// Register makes a provider available under a name. Later registrations
// replace earlier ones, which lets tests install fakes.
func Register(name string, f Factory) {
	factories[name] = f
}

// NewProvider resolves the configured provider. An empty or "none" name
// yields a nil Provider, which the extractor treats as extraction disabled.
func NewProvider(cfg Config) (Provider, error) {
	name := cfg.Provider
	if name == "" {
		name = ProviderNone
	}
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown extract provider %q", name)
	}
	return factory(cfg)
}

func init() {
	Register(ProviderNone, func(Config) (Provider, error) { return nil, nil })
}
