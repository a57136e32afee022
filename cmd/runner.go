package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/repositories"
	"github.com/desertthunder/kjx/internal/rotation"
	"github.com/desertthunder/kjx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	ownsDB     bool
	session    *rotation.Session
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB // opened from the config on first use when nil
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, singerCommand, queueCommand, currentCommand, rotationCommand, songsCommand,
		waitCommand, advanceCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// LoadConfig reads the file named by --config before any command runs.
//
// A missing default file falls back to the embedded defaults. A missing file that was named explicitly is an error.
func (r *Runner) LoadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	r.configPath = path

	if _, err := os.Stat(path); err != nil {
		if cmd.IsSet("config") {
			return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
		r.logger.Debug("config file not found, using defaults", "path", path)
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config

	level, err := shared.ParseLogLevel(config.Logging.Level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// SetLogger replaces the logger used by the runner and any session it opens afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Session opens the database, applies pending migrations and builds the rotation session on first use.
func (r *Runner) Session() (*rotation.Session, error) {
	if r.session != nil {
		return r.session, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	if err := shared.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	opts, err := rotation.OptionsFromConfig(r.config.Rotation)
	if err != nil {
		return nil, err
	}

	r.session = rotation.NewSession(db, repositories.NewSongRepository(db), opts, r.logger)
	return r.session, nil
}

// database opens the configured database without touching its schema.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	r.db, r.ownsDB = db, true
	return db, nil
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() error {
	if !r.ownsDB || r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.session, r.ownsDB = nil, nil, false
	return err
}

// singer resolves a command argument to a singer, by id when it parses as one and by name otherwise.
func (r *Runner) singer(s *rotation.Session, arg string) (*models.Singer, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, fmt.Errorf("%w: singer", shared.ErrMissingArgument)
	}

	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if singer, err := s.Rotation().Singer(id); err == nil {
			return singer, nil
		}
	}
	return s.Rotation().SingerByName(arg)
}

// singers resolves every argument with [Runner.singer].
func (r *Runner) singers(s *rotation.Session, args []string) ([]*models.Singer, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one singer", shared.ErrMissingArgument)
	}

	singers := make([]*models.Singer, 0, len(args))
	for _, arg := range args {
		singer, err := r.singer(s, arg)
		if err != nil {
			return nil, err
		}
		singers = append(singers, singer)
	}
	return singers, nil
}

// policy returns the --policy flag, or the configured insertion policy when it is unset.
func (r *Runner) policy(s *rotation.Session, cmd *cli.Command) (models.InsertionPolicy, error) {
	if !cmd.IsSet("policy") {
		return s.Options().Policy, nil
	}

	policy, err := models.ParseInsertionPolicy(cmd.String("policy"))
	if err != nil {
		return policy, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	return policy, nil
}

// argID parses the i-th argument as an id.
func argID(cmd *cli.Command, i int, what string) (int64, error) {
	arg := cmd.Args().Get(i)
	if arg == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, what)
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", shared.ErrInvalidArgument, what, arg)
	}
	return id, nil
}

// argPosition parses the i-th argument as a 1-based position and returns it zero-based.
func argPosition(cmd *cli.Command, i int) (int, error) {
	arg := cmd.Args().Get(i)
	if arg == "" {
		return 0, fmt.Errorf("%w: position", shared.ErrMissingArgument)
	}

	pos, err := strconv.Atoi(arg)
	if err != nil || pos < 1 {
		return 0, fmt.Errorf("%w: position must be 1 or more, got %q", shared.ErrInvalidArgument, arg)
	}
	return pos - 1, nil
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
