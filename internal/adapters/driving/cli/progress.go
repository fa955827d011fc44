package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// progressLine prints progress updates. On a terminal each update
// rewrites the current line; otherwise every update is its own line.
type progressLine struct {
	w     io.Writer
	tty   bool
	dirty bool
}

func newProgressLine(w io.Writer) *progressLine {
	return &progressLine{w: w, tty: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Update prints one progress message.
func (p *progressLine) Update(format string, args ...any) {
	if p.tty {
		fmt.Fprintf(p.w, "\r\033[K"+format, args...)
		p.dirty = true
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Done ends a rewritten line so later output starts on a fresh one.
func (p *progressLine) Done() {
	if p.dirty {
		fmt.Fprintln(p.w)
		p.dirty = false
	}
}
