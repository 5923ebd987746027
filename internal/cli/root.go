// Package cli implements the lightdao command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/syssam/lightdao"
	"github.com/syssam/lightdao/config"
	"github.com/syssam/lightdao/dao"
	"github.com/syssam/lightdao/dialect/sql"
	"github.com/syssam/lightdao/query/naming"
	"github.com/syssam/lightdao/schema"
	"github.com/syssam/lightdao/template"
)

// RootOptions holds the global flags.
type RootOptions struct {
	Config  string
	Verbose bool
	Format  string // "text" | "json"
}

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"text", "json"}

// NewRootCommand returns the lightdao root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	cmd := &cobra.Command{
		Use:   "lightdao",
		Short: "Plan DAO method names and render SQL templates",
		Long: `lightdao compiles DAO method names such as findByNameLikeOrderByIdDesc
and SQL templates into parameterized statements.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "configuration file (yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewGenCommand(opts))
	return cmd
}

// Execute runs the root command with args and returns the process exit
// code. Errors are printed to stderr in text mode.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return ExitCode(err)
}

// env is the state shared by the subcommands of one run.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	out    *output
}

func newEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.Config != "" {
		cfg, err = config.Load(opts.Config)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}
	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(cmd.ErrOrStderr(), hopts)
	if opts.Format == "json" {
		h = slog.NewJSONHandler(cmd.ErrOrStderr(), hopts)
	}
	return &env{
		cfg:    cfg,
		logger: slog.New(h),
		out:    &output{format: opts.Format, w: cmd.OutOrStdout()},
	}, nil
}

func (e *env) dialect() (sql.Dialect, error) {
	d, err := sql.DialectFor(e.cfg.Dialect)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "dialect", err)
	}
	return d, nil
}

// entity returns the configured entity, or a bare one named after the
// snake_case form of name.
func (e *env) entity(name string) *schema.Entity {
	if ent, ok := e.cfg.Schema()[name]; ok {
		return ent
	}
	e.logger.Debug("entity not configured", "entity", name)
	return &schema.Entity{Name: name, Table: naming.Snake(name)}
}

// registry loads the configured template directories.
func (e *env) registry(ctx context.Context) (*template.Registry, error) {
	reg := template.NewRegistry(template.WithRegistryLogger(e.logger))
	if len(e.cfg.Templates) == 0 {
		return reg, nil
	}
	if err := reg.Load(ctx, e.cfg.Templates...); err != nil {
		return nil, err
	}
	return reg, nil
}

// client opens the configured database and returns a DAO client over a
// StatsDriver. The returned func closes the database.
func (e *env) client(ctx context.Context) (*dao.Client, func() error, error) {
	dsn, err := e.cfg.DataSource()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "data source", err)
	}
	drv, err := sql.Open(e.cfg.DriverName(), dsn)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open database", err)
	}
	reg, err := e.registry(ctx)
	if err != nil {
		return nil, nil, errors.Join(WrapExitError(ExitFailure, "load templates", err), drv.Close())
	}
	stats := sql.NewStatsDriver(drv,
		sql.WithSlowThreshold(e.cfg.Slow()),
		sql.WithSlowQueryLog(e.logger),
	)
	opts := []dao.Option{dao.WithRegistry(reg), dao.WithLogger(e.logger)}
	if e.cfg.Cache.Enabled {
		opts = append(opts, dao.WithCache(lightdao.NewMemoryCache(), e.cfg.CacheTTL()))
	}
	return dao.NewClient(stats, opts...), drv.Close, nil
}

func position(err error) (line, col int) {
	var te *lightdao.TemplateError
	if errors.As(err, &te) {
		return te.Line, te.Col
	}
	return 0, 0
}
