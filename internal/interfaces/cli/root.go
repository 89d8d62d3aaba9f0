package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/CDNAtlas/internal/app"
	"github.com/turtacn/CDNAtlas/internal/application/atlas"
	"github.com/turtacn/CDNAtlas/internal/config"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats accepted by --output.
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	DatasetPath  string
	LogLevel     string
	OutputFormat string
	Timeout      time.Duration
	Server       string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	ConfigPath   string
	Logger       logging.Logger
	OutputFormat string
	Timeout      time.Duration
	// Server is the base URL of a running API server.  When set, query
	// commands call it instead of loading the dataset locally.
	Server string

	app *app.App
}

// Service builds the atlas service on first use.  Query commands run
// without tracing or a metrics registry; serve builds its own App.
func (c *CLIContext) Service(ctx context.Context) (atlas.Service, error) {
	if c.Server != "" {
		return newRemoteService(c.Server)
	}
	if c.app == nil {
		cfg := *c.Config
		cfg.Tracing.Enabled = false
		cfg.Metrics.Enabled = false
		a, err := app.New(ctx, &cfg, c.Logger)
		if err != nil {
			return nil, err
		}
		c.app = a
	}
	return c.app.Service, nil
}

func (c *CLIContext) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close(context.Background())
	c.app = nil
	return err
}

// NewRootCommand creates the root cobra command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cdnatlas",
		Short: "CDNAtlas: cross-border CDN dependency map",
		Long: "CDNAtlas scores, filters and lays out the directed CDN dependencies between\n" +
			"countries, and serves them to the map dashboard over an HTTP API.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./cdnatlas.yaml, then configs/config.yaml)")
	pf.StringVar(&opts.DatasetPath, "dataset", "", "dataset file (JSON or YAML); \"embedded:sample\" uses the built-in sample")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputText, "output format (text, json, table)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "operation timeout for query commands")
	pf.StringVar(&opts.Server, "server", "", "query a running API server (e.g. http://localhost:8080) instead of the local dataset")

	cmd.AddCommand(
		NewScoreCmd(),
		NewLayerCmd(),
		NewCountryCmd(),
		NewStatsCmd(),
		NewAnalyticsCmd(),
		NewServeCmd(),
		newVersionCmd(),
	)
	return cmd
}

// persistentPreRun initializes config and logger, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case OutputText, OutputJSON, OutputTable:
	default:
		return errors.InvalidParam("unsupported output format").WithDetail(opts.OutputFormat)
	}

	cfg, path, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	cliCtx := &CLIContext{
		Config:       cfg,
		ConfigPath:   path,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Timeout:      opts.Timeout,
		Server:       strings.TrimSpace(opts.Server),
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// configSearchPaths are tried in order when --config is not given.
func configSearchPaths() []string {
	paths := []string{"./cdnatlas.yaml", "configs/config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".cdnatlas", "config.yaml"))
	}
	return paths
}

// initConfig loads configuration with priority: flags > env > file >
// defaults.  It returns the file used, if any.
func initConfig(opts *RootOptions) (*config.Config, string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", err
	}

	path := opts.ConfigPath
	if path == "" {
		for _, p := range configSearchPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	cfg, err := config.LoadOrEnv(path)
	if err != nil {
		return nil, "", err
	}
	if opts.DatasetPath != "" {
		cfg.Dataset.Path = opts.DatasetPath
	}
	if opts.LogLevel != "" {
		if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
			return nil, "", err
		}
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, path, nil
}

// initLogger creates a console logger on stderr so stdout carries only
// command output.
func initLogger(cfg *config.Config) (logging.Logger, error) {
	logCfg := cfg.Log.Logging()
	logCfg.Format = "console"
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	return logging.NewLogger(logCfg)
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// withService resolves the CLIContext and service and runs fn under the
// configured timeout.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc atlas.Service) (interface{}, error)) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if cliCtx.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliCtx.Timeout)
		defer cancel()
	}
	svc, err := cliCtx.Service(ctx)
	if err != nil {
		return err
	}
	defer cliCtx.close()

	result, err := fn(ctx, svc)
	if err != nil {
		return err
	}
	return PrintResult(cmd, result)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

type textProvider interface {
	Text() string
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := OutputText
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = cliCtx.OutputFormat
	}

	switch format {
	case OutputJSON:
		return printJSON(cmd, data)
	case OutputTable:
		return printTable(cmd, data)
	default:
		return printText(cmd, data)
	}
}

// printJSON outputs data as indented JSON to stdout.  Views serialize the
// service result they wrap.
func printJSON(cmd *cobra.Command, data interface{}) error {
	if v, ok := data.(interface{ JSONValue() interface{} }); ok {
		data = v.JSONValue()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case textProvider:
		fmt.Fprint(cmd.OutOrStdout(), v.Text())
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// printTable outputs data as a table if it implements tableProvider,
// otherwise falls back to text.
func printTable(cmd *cobra.Command, data interface{}) error {
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printText(cmd, data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(colWidths))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, fmt.Sprintf("cdnatlas %s (commit: %s, built: %s)", Version, GitCommit, BuildDate))
		},
	}
}
