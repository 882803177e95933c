package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/prefetch"
	"github.com/desertthunder/ytplay/internal/repositories"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/desertthunder/ytplay/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, durable store and catalog engine are opened on first use so commands that never touch the
// catalog (setup, play --queue) do not require an origin or database.
type Runner struct {
	config     *shared.Config
	configPath string
	origin     services.ContentOrigin
	resolver   services.MetadataResolver
	logger     *log.Logger
	output     io.Writer

	db     *sql.DB
	repo   *repositories.ContentCacheRepository
	store  prefetch.DurableStore
	cache  *prefetch.Cache
	engine *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Origin     services.ContentOrigin
	Resolver   services.MetadataResolver
	Store      prefetch.DurableStore // overrides the sqlite-backed store
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.Origin == nil {
		opts.Origin = services.NewOriginServiceFromConfig(opts.Config.Origin, opts.Logger)
	}
	if opts.Resolver == nil {
		opts.Resolver = services.NewOEmbedResolver(opts.Config.Resolver.BaseURL, opts.Config.Resolver.RateLimit, nil, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		origin:     opts.Origin,
		resolver:   opts.Resolver,
		store:      opts.Store,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, playCommand, prefetchCommand, feedCommand, cacheCommand, queueCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and anything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// openDatabase opens the configured database and applies pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.repo = repositories.NewContentCacheRepository(db)
	return db, nil
}

// repository returns the content cache repository, opening the database if needed.
func (r *Runner) repository() (*repositories.ContentCacheRepository, error) {
	if _, err := r.openDatabase(); err != nil {
		return nil, err
	}
	return r.repo, nil
}

// catalog returns the catalog engine, wiring the prefetch cache to the durable store on first use.
//
// A database that cannot be opened disables the durable tier instead of failing the command.
func (r *Runner) catalog() *tasks.Engine {
	if r.engine != nil {
		return r.engine
	}

	if r.store == nil {
		if repo, err := r.repository(); err != nil {
			r.logger.Warn("durable cache unavailable, using memory only", "error", err)
		} else {
			r.store = repositories.NewDurableStoreAdapter(repo, r.config.Cache.TTL(), r.logger)
		}
	}

	r.cache = prefetch.NewCache(r.origin, r.store, r.logger)
	r.engine = tasks.NewEngine(r.cache, r.logger)
	return r.engine
}

// Close releases the database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
