// Package domain defines the core business entities for Bookwise.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - BookRecord / ChapterRecord: an ingested book and its chapters
//   - Chunk: a retrievable passage of a chapter
//   - ConceptNode / ConceptEdge: the knowledge graph
//   - Topic / TopicOccurrence: the topic registry
//   - SearchResult: a ranked, citeable passage
//   - CuratedBook: human-curated principles and strategies
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
