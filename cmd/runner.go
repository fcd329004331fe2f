package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/ryecroft/amsync/internal/automation"
	"github.com/ryecroft/amsync/internal/catalog"
	"github.com/ryecroft/amsync/internal/models"
	"github.com/ryecroft/amsync/internal/repositories"
	"github.com/ryecroft/amsync/internal/resolver"
	"github.com/ryecroft/amsync/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	music      *automation.MusicApp
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Music      *automation.MusicApp
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Music == nil {
		opts.Music = automation.NewMusicApp(nil, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		music:      opts.Music,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, tokenCommand, searchCommand, resolveCommand, syncCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDatabase opens the configured database and applies pool settings.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	return db, nil
}

// searchPacer selects the configured pacing strategy for catalog
// searches: a token bucket when searches_per_second is set, otherwise
// a fixed inter-call delay.
func (r *Runner) searchPacer() resolver.Pacer {
	if perSecond := r.config.Sync.SearchesPerSecond; perSecond > 0 {
		return resolver.NewLimiterPacer(perSecond)
	}

	return resolver.NewDelayPacer(time.Duration(r.config.Sync.SearchDelayMS) * time.Millisecond)
}

// credentials resolves the developer and user tokens: values stored in
// the database take precedence over config file values.
func (r *Runner) credentials(tokens *repositories.TokenRepository) (developer, user string) {
	developer = r.config.Credentials.AppleMusic.DeveloperToken
	user = r.config.Credentials.AppleMusic.UserToken

	if tokens == nil {
		return developer, user
	}

	if stored, err := tokens.GetByKind(models.TokenKindDeveloper); err == nil {
		if stored.Expired() {
			r.logger.Warn("stored developer token is expired, generate a fresh one")
		} else {
			developer = stored.Value()
		}
	}

	if stored, err := tokens.GetByKind(models.TokenKindUser); err == nil && !stored.Expired() {
		user = stored.Value()
	}

	return developer, user
}

// catalogClient builds an API client from config and stored tokens.
// The database is optional; without it only config credentials apply.
func (r *Runner) catalogClient(db *sql.DB) *catalog.Client {
	var tokens *repositories.TokenRepository
	if db != nil {
		tokens = repositories.NewTokenRepository(db)
	}

	developer, user := r.credentials(tokens)

	return catalog.NewClient(catalog.ClientOpts{
		Storefront:     r.config.Credentials.AppleMusic.Storefront,
		DeveloperToken: developer,
		UserToken:      user,
		HTTPClient:     r.httpClient,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
