package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// MockProvider generates deterministic embeddings from a text hash. It
// carries no semantic signal and exists for tests and offline operation.
type MockProvider struct {
	model string
	cache *Cache
}

// NewMockProvider creates a deterministic hash-based embedder
func NewMockProvider(cache *Cache) (*MockProvider, error) {
	return &MockProvider{
		model: "mock-embeddings",
		cache: cache,
	}, nil
}

func (m *MockProvider) GenerateEmbedding(ctx context.Context, text string) (*Embedding, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if m.cache != nil {
		if emb, ok := m.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    hashVector(text, MockDimension),
		Dimension: MockDimension,
		Provider:  ProviderMock,
		Model:     m.model,
	}

	if m.cache != nil {
		m.cache.Set(hash, emb)
	}

	return emb, nil
}

func (m *MockProvider) GenerateBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(texts))
	for i, text := range texts {
		emb, err := m.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// hashVector fills dim components in [-1, 1] by chaining SHA-256 blocks over
// the text plus a counter, then normalizes to unit length
func hashVector(text string, dim int) []float32 {
	vector := make([]float32, dim)

	var block [32]byte
	counter := uint32(0)
	filled := 0
	for filled < dim {
		var seed [8]byte
		binary.LittleEndian.PutUint32(seed[:4], counter)
		block = sha256.Sum256(append([]byte(text), seed[:]...))
		for i := 0; i < len(block) && filled < dim; i++ {
			vector[filled] = float32(block[i])/127.5 - 1
			filled++
		}
		counter++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}

	return vector
}

func (m *MockProvider) Dimension() int {
	return MockDimension
}

func (m *MockProvider) Provider() string {
	return ProviderMock
}

func (m *MockProvider) Model() string {
	return m.model
}

func (m *MockProvider) Close() error {
	return nil
}
