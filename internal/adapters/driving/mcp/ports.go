package mcp

import (
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server exposes.
type Ports struct {
	// Ask answers questions from the library.
	Ask driving.AskService

	// Library lists ingested items. Optional: without it the list_items
	// tool and the item resources are not registered.
	Library driving.LibraryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
