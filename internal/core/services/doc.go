// Package services holds the retrieval and synthesis pipeline: the
// retriever and its diversity selection, the grounded synthesizer, the
// outline planner and the bibliography aggregator, plus the ingest, ask,
// expand, cite, library and settings use cases built on them.
//
// Everything here talks to the outside through driven ports only.
package services
