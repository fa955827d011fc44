// Package logger provides verbose diagnostics for groundwork commands.
//
// Nothing is written unless verbose mode is on (the --verbose flag). Output
// goes to stderr so it never mixes with documents written to stdout.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the writer for verbose logs. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf writes one line under the write lock; concurrent section workers
// share the output writer.
func logf(prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug logs retrieval and model details: chunk counts, similarity peeks,
// token usage.
func Debug(format string, args ...any) {
	logf("[DEBUG] ", format, args...)
}

// Info logs pipeline progress.
func Info(format string, args ...any) {
	logf("[INFO] ", format, args...)
}

// Warn logs a degraded outcome that does not stop the command, such as a
// retry or a fallback outline.
func Warn(format string, args ...any) {
	logf("[WARN] ", format, args...)
}

// Section prints a stage header.
func Section(name string) {
	logf("", "\n=== %s ===", name)
}

// Elapsed logs how long a stage took when the returned func is called.
//
//	defer logger.Elapsed("retrieve")()
func Elapsed(stage string) func() {
	start := now()
	return func() {
		logf("[INFO] ", "%s took %s", stage, now().Sub(start).Round(time.Millisecond))
	}
}
