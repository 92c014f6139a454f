// Package backup provides the core functionality for archiving a WordPress
// site to disk.
//
// The backup package orchestrates the entire run, coordinating between the
// WordPress REST API client, the entity registry, and the archive writer.
//
// Architecture:
//
// The Orchestrator struct is the main component that:
//   - Walks the four content phases in order: authors, taxonomies, media, posts
//   - Paginates each collection through the rate-limited API client
//   - Normalizes raw API records into typed entities
//   - Resolves id references through a per-run Registry, degrading missing
//     references to placeholder entities
//   - Streams post files to disk as they are fetched and writes one index
//     file per content kind
//
// Phases run strictly sequentially. Posts come last so that author,
// taxonomy and media references can be resolved against fully fetched
// indexes. The registry is rebuilt for every run and never shared.
//
// Failure policy:
//
// An authentication rejection aborts the run immediately, as does retry
// exhaustion while fetching one of the indexes posts depend on. Every
// other failure is recorded on the run and reported in the final summary:
// a posts page that keeps failing is skipped, an unwritable post file is
// skipped, a media binary that cannot be downloaded keeps its metadata. A
// failed run writes no summary file.
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	orch := backup.New(cfg, nil)
//	run, err := orch.Run(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("archived %d posts\n", run.Counts.Posts)
package backup
