// Package domain defines the core business entities for Groundwork.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Item: An ingested book or paper
//   - Chunk: A page-addressable, embedded slice of an item
//   - Candidate and Evidence: Retrieval results and their guardrail verdict
//   - Section: One unit of a long-form expansion plan
//   - BibliographyEntry: A citation collected during synthesis
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
