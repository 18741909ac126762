// Package matchmaker matches patient profiles against a corpus of
// clinical-trial records and returns a ranked, explainable shortlist.
//
// The ranking engine combines a learned semantic-similarity signal with
// deterministic rule-based eligibility evidence into one explainable score,
// backed by a content-addressed cache of corpus embeddings with defined
// invalidation and rebuild semantics.
//
// # Architecture
//
// The main components are:
//
//   - pkg/nlp: text canonicalization applied before embedding and rule
//     matching
//   - pkg/rules: structured eligibility constraints (age bounds, sex
//     requirement, keyword evidence) extracted from free-text criteria
//   - pkg/embedder: batch text-to-vector providers (local EmbedEverything
//     model or the OpenAI API), always unit-normalized
//   - pkg/corpus: the corpus cache manager owning the current
//     (snapshot, embeddings) pair behind an atomic reference
//   - pkg/registry: the clinicaltrials.gov v2 ingestion client
//   - pkg/patients: on-disk patient profiles
//
// The root package ties them together behind the Matchmaker interface.
//
// # Usage
//
//	embedClient := embedder.NewEmbedEverythingClient(embedder.Config{})
//	client, err := matchmaker.NewClient(embedClient, &matchmaker.Config{
//	    CacheDir:    "data",
//	    PatientsDir: "data/patients",
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.RefreshCorpus(ctx, "quick"); err != nil {
//	    log.Fatal(err)
//	}
//	results, err := client.Match(ctx, patient, matchmaker.DefaultTopK)
//
// Ranking requests made before a corpus is loaded fail with ErrNotReady;
// they are never answered with a silently empty list.
package matchmaker
