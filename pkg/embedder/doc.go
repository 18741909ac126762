// Package embedder provides text embedding clients for vector
// representations of trial and patient text.
//
// This package defines the Client interface and implementations for a local
// EmbedEverything model (the default, mirroring the original
// all-MiniLM-L6-v2 sentence encoder) and the OpenAI embeddings API.
//
// # Contract
//
// Implementations return one vector per input text, in input order, always
// unit-normalized so that cosine similarity reduces to a dot product.
// Dimensionality is fixed for the process lifetime.
//
// # Batch Processing
//
//   - Embed(): Embed multiple texts in a single call
//   - EmbedSingle(): Convenience method for single text
//
// Implementations handle provider batch limits internally; batching is a
// throughput concern only and never changes the result.
package embedder
