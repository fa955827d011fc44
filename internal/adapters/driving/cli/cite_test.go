package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
)

func TestCiteCmd_PrintsToStdoutByDefault(t *testing.T) {
	ts := setupTestServices(t)
	ts.cite.result = &driving.CiteResult{
		Document:     "Salt was taxed.[^1]\n\n[^1]: Salt (Kurlansky, 2002), p.33.\n",
		Paragraphs:   []driving.CitedParagraph{{Text: "Salt was taxed.", Grounded: true}},
		Bibliography: []string{"Salt (Kurlansky, 2002)"},
	}

	out, err := execute(t, "cite", writeDraft(t, "Salt was taxed."), "--max-chunks", "4")

	require.NoError(t, err)
	assert.Equal(t, "Salt was taxed.", ts.cite.got.Text)
	assert.Equal(t, 4, ts.cite.got.Selection.MaxChunks)
	assert.Contains(t, out, "[^1]: Salt (Kurlansky, 2002), p.33.")
}

func TestCiteCmd_DefaultMaxChunks(t *testing.T) {
	assert.Equal(t, "8", citeCmd.Flags().Lookup("max-chunks").DefValue)
	assert.Equal(t, "-", citeCmd.Flags().Lookup("out").DefValue)
}

func TestCiteCmd_PartialResultIsWritten(t *testing.T) {
	ts := setupTestServices(t)
	ts.cite.result = &driving.CiteResult{
		Document:   "First.[^1]\n",
		Paragraphs: []driving.CitedParagraph{{Text: "First."}},
	}
	ts.cite.err = errors.New("paragraph 2: embed: timeout")
	out := filepath.Join(t.TempDir(), "cited.md")

	_, err := execute(t, "cite", writeDraft(t, "First.\n\nSecond."), "--out", out)

	assert.ErrorContains(t, err, "cite stopped after 1 paragraphs")
	data, readErr := os.ReadFile(out)
	require.NoError(t, readErr)
	assert.Equal(t, "First.[^1]\n", string(data))
}

func TestCiteCmd_ServiceErrorWithoutResult(t *testing.T) {
	ts := setupTestServices(t)
	ts.cite.err = errors.New("no paragraphs")

	_, err := execute(t, "cite", writeDraft(t, "x"))

	assert.ErrorContains(t, err, "cite failed: no paragraphs")
}
