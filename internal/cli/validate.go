package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/config"
	"github.com/roach88/graphlint/internal/engine"
	"github.com/roach88/graphlint/internal/graph"
	"github.com/roach88/graphlint/internal/store"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	SchemaOptions
	ConfigFile  string
	EnvFile     string
	Backend     string
	URI         string
	Database    string
	History     string // history database path
	Concurrency int
}

// SessionOpener connects to the database described by cfg. The returned
// close function releases the connection.
type SessionOpener func(ctx context.Context, cfg config.Neo4jConfig) (engine.Session, func(context.Context) error, error)

// openSession is replaced in tests.
var openSession SessionOpener = openNeo4j

func openNeo4j(ctx context.Context, cfg config.Neo4jConfig) (engine.Session, func(context.Context) error, error) {
	client, err := graph.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Verify(ctx); err != nil {
		client.Close(ctx)
		return nil, nil, err
	}
	return client, client.Close, nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Check a graph database against a schema",
		Long: `Compile a schema, run every check against the configured database
and print the validation report.

Connection settings come from graphlint.yaml (or --config), GRAPHLINT_*
environment variables (a .env file is loaded first) and flags, in
increasing precedence.

Exits 0 when the graph conforms, 1 when it does not, 2 on errors.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default ./graphlint.yaml)")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", "", "query backend (cypher|gql)")
	cmd.Flags().StringVar(&opts.URI, "uri", "", "database URI")
	cmd.Flags().StringVar(&opts.Database, "database", "", "database name")
	cmd.Flags().StringVar(&opts.History, "history", "", "append the report to this history database")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "checks executed in parallel")

	return cmd
}

// settings merges loaded configuration with flags the user set.
func (o *ValidateOptions) settings(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(o.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = o.Backend
	}
	if flags.Changed("uri") {
		cfg.Neo4j.URI = o.URI
	}
	if flags.Changed("database") {
		cfg.Neo4j.Database = o.Database
	}
	if flags.Changed("history") {
		cfg.HistoryDB = o.History
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = o.Concurrency
	}
	if flags.Changed("strict") {
		cfg.Strict = o.Strict
	}
	if flags.Changed("mapping") {
		cfg.MappingFile = o.Mapping
	}
	if o.NoColor {
		cfg.NoColor = true
	}
	return cfg, cfg.Validate()
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.settings(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "configuration", err)
	}

	b, err := backend.Get(cfg.Backend)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBackend, "backend", err)
	}
	plan, err := loadPlan(f, path, SchemaOptions{
		SchemaFormat: opts.SchemaFormat,
		Mapping:      cfg.MappingFile,
		Strict:       cfg.Strict,
	})
	if err != nil {
		return err
	}

	sess, closeSession, err := openSession(ctx, cfg.Neo4j)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConnection, "connecting to "+cfg.Neo4j.URI, err)
	}
	defer func() {
		if err := closeSession(ctx); err != nil {
			slog.Warn("closing database session", "error", err)
		}
	}()
	f.VerboseLog("Connected to %s", cfg.Neo4j.URI)

	runner := engine.NewRunner(b,
		engine.WithConcurrency(cfg.Concurrency),
		engine.WithTarget(target(cfg.Neo4j)),
	)
	report, err := runner.Execute(ctx, plan, sess)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeExecution, "validation aborted", err)
	}

	if cfg.HistoryDB != "" {
		if err := recordHistory(ctx, cfg.HistoryDB, report); err != nil {
			return f.Fail(ExitCommandError, ErrCodeHistory, "recording history", err)
		}
		f.VerboseLog("Recorded run %s in %s", report.RunID, cfg.HistoryDB)
	}

	if err := f.Success(report, func(w io.Writer) error {
		return report.WriteText(w, &engine.TextOptions{NoColor: cfg.NoColor})
	}); err != nil {
		return err
	}
	if !report.Conforms {
		return NewExitError(ExitFailure, "graph does not conform")
	}
	return nil
}

func target(cfg config.Neo4jConfig) string {
	if cfg.Database == "" {
		return cfg.URI
	}
	return cfg.URI + "/" + cfg.Database
}

func recordHistory(ctx context.Context, path string, report *engine.Report) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.WriteReport(ctx, report)
}
