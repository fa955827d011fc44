// Package driving declares the use cases the CLI and the MCP server call:
// ingest, ask, expand, cite, library inspection and settings. Request and
// result types live next to each interface.
package driving
