package services

import (
	"crypto/md5" //nolint:gosec // dedupe key, not a security boundary
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

const noSourcesReferenced = "(No sources referenced.)"

// Bibliography collects citation entries across one synthesis run.
// It is owned by a single goroutine; callers aggregate after units finish.
type Bibliography struct {
	entries map[string]string
}

// NewBibliography creates an empty aggregator.
func NewBibliography() *Bibliography {
	return &Bibliography{entries: make(map[string]string)}
}

// Add records entries. An entry with a source id is keyed by that id,
// otherwise by a hash of its normalised text. A later entry with the
// same key replaces the earlier one. Blank texts are skipped.
func (b *Bibliography) Add(entries ...domain.BibliographyEntry) {
	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		b.entries[BibliographyKey(e)] = text
	}
}

// Len returns the number of distinct keys collected so far.
func (b *Bibliography) Len() int {
	return len(b.entries)
}

// Entries returns the distinct entry texts sorted case-insensitively.
func (b *Bibliography) Entries() []string {
	seen := make(map[string]bool, len(b.entries))
	out := make([]string, 0, len(b.entries))
	for _, text := range b.entries {
		if seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i]), strings.ToLower(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}

// Render formats the bibliography section of a document.
func (b *Bibliography) Render() string {
	var sb strings.Builder
	sb.WriteString("## Bibliography\n")
	entries := b.Entries()
	if len(entries) == 0 {
		sb.WriteString(noSourcesReferenced + "\n")
		return sb.String()
	}
	for _, e := range entries {
		sb.WriteString("- " + e + "\n")
	}
	return sb.String()
}

// BibliographyKey returns the dedupe key for e.
func BibliographyKey(e domain.BibliographyEntry) string {
	if e.SourceID != nil {
		return "sid:" + strconv.FormatInt(*e.SourceID, 10)
	}
	sum := md5.Sum([]byte(normaliseCitation(e.Text))) //nolint:gosec
	return "txt:" + hex.EncodeToString(sum[:])
}

func normaliseCitation(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
