// Package mcp exposes the document store over the Model Context Protocol.
//
// The server speaks MCP on stdio (which is why nothing in this module logs
// to stdout) and registers one tool per store operation: add_document,
// add_documents, get_document, delete_document, search_similar, search_text,
// hybrid_search, search_clustered, search_facets, and get_status.
//
// Handlers validate arguments, embed query text where a tool needs a vector,
// delegate to the search and ingest layers, and render results as indented
// JSON. Failures map to JSON-RPC error codes; a dimension mismatch gets its
// own code and a hint to re-embed the corpus, since retrying can never fix
// it. An empty result set is not an error and renders as a plain
// "no matching documents found" message.
package mcp
