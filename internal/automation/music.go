package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ryecroft/amsync/internal/shared"
)

// MusicApp controls the local Music application.
type MusicApp struct {
	runner ScriptRunner
	logger *log.Logger
}

// NewMusicApp creates a controller. A nil runner defaults to osascript.
func NewMusicApp(runner ScriptRunner, logger *log.Logger) *MusicApp {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	if runner == nil {
		runner = NewOsascriptRunner(logger)
	}

	return &MusicApp{runner: runner, logger: logger}
}

// EnsurePlaylist returns the name of the playlist, creating it when it
// does not exist yet.
func (m *MusicApp) EnsurePlaylist(ctx context.Context, name string) error {
	script := fmt.Sprintf(`tell application "Music"
	if not (exists playlist "%[1]s") then
		make new playlist with properties {name:"%[1]s"}
	end if
	return "ok"
end tell`, escapeScriptString(name))

	out, err := m.runner.Run(ctx, script)
	if err != nil {
		return err
	}

	if reason, failed := scriptError(out); failed {
		return fmt.Errorf("ensure playlist %q: %s", name, reason)
	}

	return nil
}

// AddTrackToPlaylist searches the local library for the term and adds
// the first hit to the named playlist. Returns shared.ErrTrackNotFound
// when the library has no matching track yet.
func (m *MusicApp) AddTrackToPlaylist(ctx context.Context, playlist, term string) error {
	script := fmt.Sprintf(`tell application "Music"
	set hits to (search library playlist 1 for "%s")
	if (count of hits) is 0 then
		return "Error: no matching track"
	end if
	duplicate (item 1 of hits) to playlist "%s"
	return "ok"
end tell`, escapeScriptString(term), escapeScriptString(playlist))

	out, err := m.runner.Run(ctx, script)
	if err != nil {
		return err
	}

	if reason, failed := scriptError(out); failed {
		m.logger.Debug("local search missed", "term", term, "reason", reason)

		if strings.Contains(reason, "no matching track") {
			return shared.ErrTrackNotFound
		}

		return fmt.Errorf("add %q to %q: %s", term, playlist, reason)
	}

	return nil
}

// scriptError reports whether the script output signals a failure.
func scriptError(out string) (string, bool) {
	if !strings.HasPrefix(out, errorPrefix) {
		return "", false
	}

	return strings.TrimSpace(strings.TrimPrefix(out, errorPrefix)), true
}
