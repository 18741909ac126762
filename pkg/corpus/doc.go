// Package corpus owns the current trial corpus and its embeddings.
//
// The Manager holds a single process-wide (snapshot, vectors) pair behind an
// atomically swapped reference. Readers take one consistent pair per request;
// writers build a brand-new pair off to the side and publish it in one step,
// so a ranking request never observes a snapshot paired with a stale or
// mismatched vector set.
//
// # Content-addressed persistence
//
// Embedding matrices are persisted as one parquet file per corpus
// fingerprint. The fingerprint is a cheap length-based signature of the
// identifying columns, not a full content hash: content changes that happen
// to preserve column lengths can collide. A wrong hit serves stale vectors,
// never corrupt data, and RebuildEmbeddings recovers from it. Cache files
// are only ever created or deleted wholesale.
package corpus
