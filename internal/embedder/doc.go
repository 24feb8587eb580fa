// Package embedder generates vector embeddings for query and document text.
//
// Embedding generation is an external capability: the search core only
// consumes fixed-length vectors and never calls this package. It exists so
// the callers above the core (the MCP layer, bulk ingestion) can turn text
// into vectors.
//
// Providers:
//   - openai: OpenAI embeddings API (needs OPENAI_API_KEY)
//   - ollama: local Ollama instance (OLLAMA_HOST, default localhost:11434)
//   - mock: deterministic hash-based vectors, no semantic signal; for tests
//     and offline use
//
// All providers share an LRU text-to-vector cache and exponential-backoff
// retry. Select a provider with DOCVAULT_EMBEDDING_PROVIDER or let
// NewFromEnv auto-detect from available API keys.
//
// Mixing providers against one corpus breaks search: vectors from different
// models have different dimensions, and comparing them fails with a
// dimension mismatch that requires re-embedding the corpus.
package embedder
