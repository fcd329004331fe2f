// Package automation drives the local Music.app through AppleScript.
//
// Catalog additions propagate to the local library asynchronously, so
// playlist membership is applied here rather than through the web API.
// Scripts report failure by printing a line starting with "Error:";
// that convention is translated into Go errors at this boundary and
// never leaks past it.
package automation

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ryecroft/amsync/internal/shared"
)

const errorPrefix = "Error:"

// ScriptRunner executes an AppleScript source and returns its output.
type ScriptRunner interface {
	Run(ctx context.Context, script string) (string, error)
}

// OsascriptRunner shells out to /usr/bin/osascript.
type OsascriptRunner struct {
	logger *log.Logger
}

// NewOsascriptRunner creates a runner backed by the system osascript binary.
func NewOsascriptRunner(logger *log.Logger) *OsascriptRunner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &OsascriptRunner{logger: logger}
}

func (r *OsascriptRunner) Run(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("osascript: %w (%s)", err, strings.TrimSpace(string(out)))
	}

	return strings.TrimSpace(string(out)), nil
}

// escapeScriptString escapes a Go string for embedding in an
// AppleScript double-quoted literal.
func escapeScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
