// Package types defines the core data types for the clinical-trial matchmaker.
//
// This package contains the fundamental types used throughout the module:
//   - TrialRecord: A single clinical-trial registry entry
//   - CorpusSnapshot: An immutable, normalized collection of trial records
//   - EmbeddingCacheEntry: Content-addressed vectors aligned to a snapshot
//   - PatientProfile: The patient side of a match request
//   - EligibilityAssessment: Rule-based evidence for one (patient, trial) pair
//   - RankingResult: One explained entry of the ranked shortlist
//
// # Immutability
//
// TrialRecord, CorpusSnapshot and EmbeddingCacheEntry are treated as immutable
// once constructed. Corpus updates build new values and publish them wholesale;
// no type in this package is mutated in place after it becomes visible to a
// reader.
//
// # JSON Serialization
//
// Field tags follow the wire names of the original service so existing patient
// profile files and API consumers keep working unchanged.
package types
