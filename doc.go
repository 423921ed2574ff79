// Package semdex provides an embedded semantic search engine for vector
// documents.
//
// Semdex stores embedded representations of prompts, templates, examples,
// and feedback, indexes them for approximate nearest-neighbor retrieval, and
// answers similarity, clustering, recommendation, and drift-analysis queries:
//
//   - Single upsert entry point with dimension validation and L2 normalization
//   - Hierarchical multi-level graph index with brute-force fallback until the
//     first rebuild
//   - Scalar quantization with explicit, amortized recalibration
//   - Metadata filtering backed by Roaring Bitmap posting lists
//   - TTL-cached search and cluster results, coarsely invalidated on every write
//   - k-means clustering with per-cluster statistics
//   - Interaction-weighted recommendations and semantic drift reports
//   - Asynchronous, bounded, fire-and-forget analytics events
//
// All operations are safe for concurrent use. Text queries require an
// injected embedding provider; similarity math always runs on the stored
// full-precision vectors.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	engine, err := semdex.New(768,
//	    semdex.WithEmbedder(provider),
//	    semdex.WithLogLevel(slog.LevelInfo),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	defer engine.Close()
//
//	err = engine.AddDocument(ctx, &document.Document{
//	    ID:      "prompt-review",
//	    Content: "Review the following pull request for correctness.",
//	    Vector:  vec,
//	    Metadata: document.Metadata{
//	        Domain: "coding",
//	        Type:   document.TypePrompt,
//	        Tags:   []string{"review"},
//	    },
//	})
//
// Search by text or vector with metadata filters:
//
//	results, err := engine.Search(ctx, &search.Query{
//	    Text:      "check a diff for bugs",
//	    Threshold: 0.6,
//	    Limit:     5,
//	    Filter: document.Filter{
//	        Domains: []string{"coding"},
//	    },
//	})
//
// Periodic maintenance rebuilds the graph index, recalibrates the quantizer,
// and collects garbage left by deletions:
//
//	report, err := engine.OptimizeIndex(ctx)
//
// Errors unwrap to the three root sentinels, so callers can classify any
// failure with errors.Is against ErrValidation, ErrNotFound, or ErrInternal.
package semdex
