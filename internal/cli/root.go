package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"guka/app/internal/app/bootstrap"
	"guka/app/internal/domain/corpus"
	"guka/app/internal/platform/config"
	applog "guka/app/internal/platform/log"
)

const version = "0.3.0"

// Options customises the command tree. Zero values select the real implementations.
type Options struct {
	Out         io.Writer
	Fs          afero.Fs
	Proofreader corpus.Proofreader
}

// app carries the state shared by every subcommand once the configuration is resolved.
type app struct {
	opts      Options
	v         *viper.Viper
	cfgFile   string
	cfg       *config.Config
	logger    *logrus.Logger
	sentryHub *sentry.Hub
	flush     func()
}

// Execute runs gukactl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand(Options{}).ExecuteContext(ctx)
}

// NewRootCommand builds the gukactl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	a := &app{opts: opts, v: viper.New(), flush: func() {}}

	root := &cobra.Command{
		Use:   "gukactl",
		Short: "Maintain the Guka passage catalog",
		Long: `gukactl manages the exam passage catalog behind the Guka search site.

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. GUKA_* environment variables
  3. Config file (--config)
  4. Server environment variables (DB_PATH, CORPUS_DIR, ...) and defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.flush()
		},
	}
	root.SetOut(opts.Out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "YAML config file")
	flags.String("db", "", "SQLite database path")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("db_path", flags.Lookup("db"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(
		a.newIngestCommand(),
		a.newCheckCommand(),
		a.newCatalogCommand(),
		a.newProofreadCommand(),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("gukactl v%s\n", version)
		},
	}
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "loading configuration")
	}

	a.v.SetEnvPrefix("GUKA")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		a.v.SetFs(a.opts.Fs)
		if err := a.v.ReadInConfig(); err != nil {
			return eris.Wrapf(err, "reading config file %s", a.cfgFile)
		}
	}

	a.applyOverrides(cfg)
	a.cfg = cfg

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "initialising logger")
	}
	a.logger = logger

	hub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     "gukactl@" + version,
	})
	if err != nil {
		return eris.Wrap(err, "initialising sentry")
	}
	a.sentryHub = hub
	a.flush = flush

	return nil
}

// applyOverrides layers viper-managed values over the environment configuration.
func (a *app) applyOverrides(cfg *config.Config) {
	textKeys := map[string]*string{
		"db_path":      &cfg.DBPath,
		"log_level":    &cfg.LogLevel,
		"corpus_dir":   &cfg.CorpusDir,
		"llm_endpoint": &cfg.LLMEndpoint,
		"llm_api_key":  &cfg.LLMAPIKey,
		"llm_model":    &cfg.LLMModel,
		"sentry_dsn":   &cfg.SentryDSN,
	}
	for key, target := range textKeys {
		if a.v.IsSet(key) {
			if value := a.v.GetString(key); value != "" {
				*target = value
			}
		}
	}

	if a.v.IsSet("ingest_workers") {
		cfg.IngestWorkers = a.v.GetInt("ingest_workers")
	}
	if a.v.IsSet("proofread_rps") {
		cfg.ProofreadRPS = a.v.GetFloat64("proofread_rps")
	}
}

func (a *app) openStore(ctx context.Context) (*bootstrap.Store, error) {
	return bootstrap.OpenStore(ctx, bootstrap.StoreOptions{
		DBPath: a.cfg.DBPath,
		Logger: a.logger,
	})
}

func (a *app) closeStore(store *bootstrap.Store) {
	if err := store.Close(); err != nil {
		a.logger.WithError(err).Error("closing database")
	}
}
