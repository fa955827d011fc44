package domain

import (
	"fmt"
	"time"
)

// Item is one ingested source document (book or paper).
// Items are created once at ingest and never modified.
type Item struct {
	// ID is the store-assigned identifier, used by --book-id filters.
	ID int64

	// Title is the human-readable title.
	Title string

	// Author is optional.
	Author string

	// Year is the publication year. Zero means unknown.
	Year int

	// DisplayOffset is added to a physical page number to get the
	// printed page number shown to readers.
	DisplayOffset int

	// CreatedAt is when the item was ingested.
	CreatedAt time.Time
}

// PrintedPage converts a physical page number to the printed page number.
// If the offset would produce a non-positive page, the physical page is returned.
func (i Item) PrintedPage(physical int) int {
	printed := physical + i.DisplayOffset
	if printed <= 0 {
		return physical
	}
	return printed
}

// YearLabel returns the year, or "n.d." when unknown.
func (i Item) YearLabel() string {
	if i.Year <= 0 {
		return "n.d."
	}
	return fmt.Sprintf("%d", i.Year)
}

// Byline formats "Title (Author, Year)" as used in context blocks and source lists.
func (i Item) Byline() string {
	author := ""
	if i.Author != "" {
		author = i.Author + ", "
	}
	return fmt.Sprintf("%s (%s%s)", i.Title, author, i.YearLabel())
}
