// Package archive writes backup archives to the local filesystem.
//
// The archive package handles:
//   - Laying out posts under year/month directories named by slug
//   - Rendering posts as markdown documents with a YAML frontmatter header
//   - Writing JSON indexes and the run summary at the archive root
//   - Storing downloaded media binaries under media/
//
// The Writer type is the primary interface for archive operations. All file
// writes go through a temporary file and an atomic rename, so a crash never
// leaves a half-written document behind, and writing the same post twice
// converges on one file instead of duplicating it.
//
// Frontmatter headers round-trip: Parse returns exactly the header and body
// that Marshal produced, so archived posts can be rehydrated later.
//
// Usage:
//
//	writer := archive.NewWriter("./backups/myblog", log)
//
//	relPath, err := writer.WritePost(post, header)
//	if err != nil {
//	    log.Error(err.Error())
//	}
//
//	// At the end of a phase, write the collected index
//	relPath, err = writer.WriteIndex(archive.AuthorsFile, authors)
package archive
