package main

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ryecroft/amsync/internal/automation"
	"github.com/ryecroft/amsync/internal/models"
	"github.com/ryecroft/amsync/internal/repositories"
	"github.com/ryecroft/amsync/internal/shared"
	tu "github.com/ryecroft/amsync/internal/testing"
)

func testRunnerDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			music := automation.NewMusicApp(nil, logger)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Music:      music,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.music != music {
				t.Error("expected music to be set")
			}
		})

		t.Run("with empty opts uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected default http client")
			}
			if runner.music == nil {
				t.Error("expected default music automation to be set")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "token", "search", "resolve", "sync", "cache"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("expected command %d to be %q, got %q", i, name, commands[i].Name)
			}
		}
	})

	t.Run("write helpers", func(t *testing.T) {
		t.Run("writeJSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}

			got := output.String()
			if !strings.Contains(got, `"key":"value"`) {
				t.Errorf("expected compact JSON, got %q", got)
			}
			if !strings.HasSuffix(got, "\n") {
				t.Error("expected trailing newline")
			}
		})

		t.Run("writeJSON surfaces writer failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Fatal("expected an error")
			}
		})

		t.Run("writePlain formats arguments", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlain("%d tracks\n", 3)

			if output.String() != "3 tracks\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("writePlainHeader frames the title", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainHeader("Sync Complete!")

			got := output.String()
			if !strings.Contains(got, "Sync Complete!") {
				t.Errorf("expected title in output, got %q", got)
			}
			if strings.Count(got, "═") == 0 {
				t.Error("expected header rule")
			}
		})
	})

	t.Run("credentials", func(t *testing.T) {
		t.Run("without repository uses config values", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.AppleMusic.DeveloperToken = "dev-config"
			config.Credentials.AppleMusic.UserToken = "user-config"
			runner := NewRunner(RunnerOpts{Config: config})

			developer, user := runner.credentials(nil)
			if developer != "dev-config" || user != "user-config" {
				t.Errorf("expected config credentials, got %q / %q", developer, user)
			}
		})

		t.Run("stored tokens override config", func(t *testing.T) {
			db := testRunnerDB(t)
			tokens := repositories.NewTokenRepository(db)
			if _, err := tokens.Set(models.TokenKindDeveloper, "dev-stored", time.Time{}); err != nil {
				t.Fatalf("failed to store token: %v", err)
			}

			config := shared.DefaultConfig()
			config.Credentials.AppleMusic.DeveloperToken = "dev-config"
			runner := NewRunner(RunnerOpts{Config: config})

			developer, user := runner.credentials(tokens)
			if developer != "dev-stored" {
				t.Errorf("expected stored developer token, got %q", developer)
			}
			if user != "" {
				t.Errorf("expected no user token, got %q", user)
			}
		})

		t.Run("expired stored token falls back to config", func(t *testing.T) {
			db := testRunnerDB(t)
			tokens := repositories.NewTokenRepository(db)
			expired := time.Now().Add(-time.Hour)
			if _, err := tokens.Set(models.TokenKindDeveloper, "dev-stale", expired); err != nil {
				t.Fatalf("failed to store token: %v", err)
			}

			config := shared.DefaultConfig()
			config.Credentials.AppleMusic.DeveloperToken = "dev-config"
			runner := NewRunner(RunnerOpts{Config: config})

			developer, _ := runner.credentials(tokens)
			if developer != "dev-config" {
				t.Errorf("expected config fallback, got %q", developer)
			}
		})
	})

	t.Run("searchPacer", func(t *testing.T) {
		t.Run("rate limit takes precedence over fixed delay", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Sync.SearchDelayMS = 60000
			config.Sync.SearchesPerSecond = 5
			runner := NewRunner(RunnerOpts{Config: config})

			start := time.Now()
			if err := runner.searchPacer().Wait(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if time.Since(start) > time.Second {
				t.Error("expected the first limited call to skip the fixed delay")
			}
		})

		t.Run("defaults to fixed delay", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Sync.SearchDelayMS = 10
			runner := NewRunner(RunnerOpts{Config: config})

			start := time.Now()
			if err := runner.searchPacer().Wait(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if time.Since(start) < 10*time.Millisecond {
				t.Error("expected the configured pause")
			}
		})
	})

	t.Run("catalogClient", func(t *testing.T) {
		t.Run("without database uses config credentials", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.AppleMusic.UserToken = "user-config"
			runner := NewRunner(RunnerOpts{Config: config})

			client := runner.catalogClient(nil)
			if client == nil {
				t.Fatal("expected a client")
			}
			if !client.HasUserToken() {
				t.Error("expected user token from config")
			}
		})
	})
}

func TestParseTracksFile(t *testing.T) {
	writeTemp := func(t *testing.T, name, contents string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), name)
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatalf("failed to write tracks file: %v", err)
		}
		return path
	}

	t.Run("JSON array of tracks", func(t *testing.T) {
		path := writeTemp(t, "tracks.json",
			`[{"title": "Karma Police", "artist": "Radiohead", "album": "OK Computer"}]`)

		tracks, err := parseTracksFile(path)
		if err != nil {
			t.Fatalf("parseTracksFile failed: %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if tracks[0].Title != "Karma Police" || tracks[0].Artist != "Radiohead" || tracks[0].Album != "OK Computer" {
			t.Errorf("unexpected track %+v", tracks[0])
		}
	})

	t.Run("CSV with header", func(t *testing.T) {
		path := writeTemp(t, "tracks.csv",
			"Title,Artist,Album\nKarma Police,Radiohead,OK Computer\nHyperballad,Björk,Post\n")

		tracks, err := parseTracksFile(path)
		if err != nil {
			t.Fatalf("parseTracksFile failed: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[1].Artist != "Björk" {
			t.Errorf("unexpected artist %q", tracks[1].Artist)
		}
	})

	t.Run("CSV without title column fails", func(t *testing.T) {
		path := writeTemp(t, "tracks.csv", "Performer,Record\nRadiohead,OK Computer\n")

		if _, err := parseTracksFile(path); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("plain text artist-title lines", func(t *testing.T) {
		path := writeTemp(t, "tracks.txt",
			"# playlist export\nRadiohead - Karma Police\n\nInstrumental Piece\n")

		tracks, err := parseTracksFile(path)
		if err != nil {
			t.Fatalf("parseTracksFile failed: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].Artist != "Radiohead" || tracks[0].Title != "Karma Police" {
			t.Errorf("unexpected track %+v", tracks[0])
		}
		if tracks[1].Title != "Instrumental Piece" || tracks[1].Artist != "" {
			t.Errorf("unexpected track %+v", tracks[1])
		}
	})

	t.Run("empty path fails", func(t *testing.T) {
		if _, err := parseTracksFile(""); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		if _, err := parseTracksFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
			t.Fatal("expected an error")
		}
	})
}
