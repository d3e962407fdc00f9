package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-instanceselect/pkg/config"
	"github.com/goliatone/go-instanceselect/pkg/orchestrator"
	"github.com/goliatone/go-instanceselect/pkg/project"
	"github.com/goliatone/go-instanceselect/pkg/renderers/tui"
	"github.com/goliatone/go-instanceselect/pkg/store/memory"
	"github.com/goliatone/go-instanceselect/pkg/store/sqlstore"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Version is set at build time.
var Version = "dev"

// app carries the state shared by every command: flags, settings and the
// collaborators built from them.
type app struct {
	configPath  string
	projectPath string
	dataPath    string
	driver      string
	dsn         string
	templates   string
	verbose     bool

	settings *config.Settings
	logger   *zap.Logger
	project  *project.Project
	store    project.Store
	closers  []func() error

	// prompts overrides the survey driver, for tests.
	prompts tui.PromptDriver
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "instanceselect",
		Short: "Instance select tooling for tagged data entry fields",
		Long: color.CyanString(`instanceselect

Resolves @RECORDINSTANCE, @FORMINSTANCE and @EVENTINSTANCE tagged fields into
select lists, renders the page script, migrates legacy composite values and
serves the options API.`),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./instanceselect.yaml)")
	flags.StringVar(&a.projectPath, "project", "", "project definition (YAML or JSON)")
	flags.StringVar(&a.dataPath, "data", "", "record data fixture for the memory store")
	flags.StringVar(&a.driver, "driver", "", "storage driver: memory, sqlite3 or postgres")
	flags.StringVar(&a.dsn, "dsn", "", "database connection string")
	flags.StringVar(&a.templates, "templates", "", "directory holding templates/page.tmpl for the vanilla renderer")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRenderCommand(a))
	root.AddCommand(newPickCommand(a))
	root.AddCommand(newOptionsCommand(a))
	root.AddCommand(newMigrateCommand(a))
	root.AddCommand(newServeCommand(a))
	return root
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// run sets the app up, calls fn and releases the store afterwards.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.setup(ctx, cmd.ErrOrStderr()); err != nil {
		return errors.Join(err, a.close())
	}
	defer func() {
		err = errors.Join(err, a.close())
	}()
	return fn(ctx)
}

// setup loads settings, logger, project and store. Flags override settings.
func (a *app) setup(ctx context.Context, stderr io.Writer) error {
	settings, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.projectPath != "" {
		settings.Project = a.projectPath
	}
	if a.dataPath != "" {
		settings.Storage.DataFile = a.dataPath
	}
	if a.driver != "" {
		settings.Storage.Driver = a.driver
	}
	if a.dsn != "" {
		settings.Storage.DSN = a.dsn
	}
	if a.templates != "" {
		settings.TemplatesDir = a.templates
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	a.settings = settings

	if a.logger == nil {
		a.logger = newLogger(a.verbose, stderr)
	}

	if settings.Project == "" {
		return errors.New("a project definition is required (--project or project in config)")
	}
	p, err := project.LoadFile(settings.Project)
	if err != nil {
		return err
	}
	a.project = p

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.store = store
	return nil
}

func (a *app) openStore(ctx context.Context) (project.Store, error) {
	storage := a.settings.Storage
	switch storage.Driver {
	case "memory":
		if storage.DataFile == "" {
			a.logger.Warn("no data file configured, starting with an empty store")
			return memory.New(), nil
		}
		return memory.LoadFixtureFile(storage.DataFile)
	default:
		store, err := sqlstore.Open(ctx, storage.Driver, storage.DSN,
			sqlstore.WithLogger(a.logger.Named("sqlstore")),
		)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		if storage.EnsureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				return nil, err
			}
		}
		return store, nil
	}
}

func (a *app) orchestrator(extra ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	options := append([]orchestrator.Option{
		orchestrator.WithProject(a.project),
		orchestrator.WithStore(a.store),
		orchestrator.WithLogger(a.logger),
	}, a.settings.OrchestratorOptions()...)
	if path := a.settings.Presets; path != "" {
		presets, err := orchestrator.NewJSONPresetTransformerFromFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithTransformer(presets))
	}
	return orchestrator.New(append(options, extra...)...), nil
}

func (a *app) promptDriver() tui.PromptDriver {
	if a.prompts != nil {
		return a.prompts
	}
	return tui.NewSurveyDriver()
}

func (a *app) close() error {
	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer())
	}
	a.closers = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

func newLogger(verbose bool, out io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	encoderCfg := zap.NewProductionEncoderConfig()
	if verbose {
		level = zapcore.DebugLevel
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(out),
		level,
	)
	return zap.New(core)
}

// pageFlags are the request flags shared by render, pick and options.
type pageFlags struct {
	form           string
	event          int
	record         string
	instance       int
	group          string
	survey         bool
	parentInstance string
}

func (f *pageFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.form, "form", "", "form name")
	flags.IntVar(&f.event, "event", 0, "event id")
	flags.StringVar(&f.record, "record", "", "record id (empty for a new record)")
	flags.IntVar(&f.instance, "instance", 1, "form or event instance")
	flags.StringVar(&f.group, "group", "", "data access group of the user")
	flags.BoolVar(&f.survey, "survey", false, "render as a survey page")
	flags.StringVar(&f.parentInstance, "parent-instance", "", "parent_instance query parameter")
	_ = cmd.MarkFlagRequired("form")
	_ = cmd.MarkFlagRequired("event")
}

func (f *pageFlags) request(projectID int, renderer string) orchestrator.Request {
	return orchestrator.Request{
		ProjectID:      projectID,
		Record:         f.record,
		Form:           f.form,
		EventID:        f.event,
		GroupID:        f.group,
		Instance:       f.instance,
		Survey:         f.survey,
		ParentInstance: f.parentInstance,
		Renderer:       renderer,
	}
}
