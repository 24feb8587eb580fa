package embedder

import (
	"fmt"
	"os"
	"strings"
)

// EnvProvider selects the embedding provider explicitly
const EnvProvider = "DOCVAULT_EMBEDDING_PROVIDER"

// NewFromEnv creates an embedder based on environment variables.
// Priority:
//  1. DOCVAULT_EMBEDDING_PROVIDER (openai, ollama, mock)
//  2. OPENAI_API_KEY present -> openai
//  3. mock (deterministic, offline)
func NewFromEnv() (Embedder, error) {
	provider := strings.ToLower(os.Getenv(EnvProvider))
	cache := NewCache(DefaultCacheSize)

	if provider != "" {
		switch provider {
		case ProviderOpenAI:
			return NewOpenAIProvider("", cache)
		case ProviderOllama:
			return NewOllamaProvider("", cache)
		case ProviderMock:
			return NewMockProvider(cache)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
		}
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return NewOpenAIProvider("", cache)
	}

	return NewMockProvider(cache)
}
