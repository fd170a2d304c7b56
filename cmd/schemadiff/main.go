package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemadiff"
	"github.com/tordrt/schemadiff/internal/config"
	"github.com/tordrt/schemadiff/internal/formatter"
	"github.com/tordrt/schemadiff/internal/logging"
	"github.com/tordrt/schemadiff/internal/rowdiff"
)

// diffOptions holds the flags of the diff command
type diffOptions struct {
	configPath string
	from       string
	to         string
	output     string
	outputDir  string
	report     string
	dialect    string
	tables     string
	exclude    string
	schemaName string
	all        bool
}

// snapshotOptions holds the flags of the snapshot command
type snapshotOptions struct {
	configPath string
	url        string
	output     string
	tables     string
	exclude    string
	schemaName string
}

var (
	verbose   bool
	logFormat string

	diffOpts     diffOptions
	snapshotOpts snapshotOptions
)

var rootCmd = &cobra.Command{
	Use:   "schemadiff",
	Short: "Compare database schemas and generate the SQL that aligns them",
	Long: `schemadiff reads two database schemas from PostgreSQL, MySQL, SQLite or JSON snapshots,
compares them, and writes the SQL script that turns the first into the second.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr())
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Generate the script turning --from into --to",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiff(cmd.Context(), diffOpts, cmd.OutOrStdout())
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save a database schema to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshot(cmd.Context(), snapshotOpts)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log compare progress")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	f := diffCmd.Flags()
	f.StringVarP(&diffOpts.configPath, "config", "c", "", "JSON run configuration file")
	f.StringVar(&diffOpts.from, "from", "", "Origin database URL or snapshot file")
	f.StringVar(&diffOpts.to, "to", "", "Destination database URL or snapshot file")
	f.StringVarP(&diffOpts.output, "output", "o", "", "Script file, xz-compressed when ending in .xz (default: stdout)")
	f.StringVarP(&diffOpts.outputDir, "output-dir", "d", "", "Directory for the overview and one script file per object")
	f.StringVar(&diffOpts.report, "report", "", "Markdown change report file")
	f.StringVar(&diffOpts.dialect, "dialect", "", "Script dialect: mssql, postgres, mysql or sqlite (default: mssql)")
	f.StringVarP(&diffOpts.tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	f.StringVarP(&diffOpts.exclude, "exclude", "x", "", "Tables to leave out (comma-separated, optional)")
	f.StringVarP(&diffOpts.schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	f.BoolVar(&diffOpts.all, "all", false, "Write the create script of every object of --to instead of a diff")

	f = snapshotCmd.Flags()
	f.StringVarP(&snapshotOpts.configPath, "config", "c", "", "JSON run configuration file")
	f.StringVar(&snapshotOpts.url, "url", "", "Database URL")
	f.StringVarP(&snapshotOpts.output, "output", "o", "", "Snapshot file")
	f.StringVarP(&snapshotOpts.tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	f.StringVarP(&snapshotOpts.exclude, "exclude", "x", "", "Tables to leave out (comma-separated, optional)")
	f.StringVarP(&snapshotOpts.schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	_ = snapshotCmd.MarkFlagRequired("url")
	_ = snapshotCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(diffCmd, snapshotCmd)
}

func setupLogging(w io.Writer) error {
	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return err
	}
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	logging.InitLogger(level, format, w)
	return nil
}

// parseTableList splits a comma-separated flag value
func parseTableList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// resolve merges the flags over the run configuration; flags win.
func (o diffOptions) resolve() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.From, o.from)
	override(&cfg.To, o.to)
	override(&cfg.Output, o.output)
	override(&cfg.Dialect, o.dialect)

	if cfg.To == "" {
		return nil, fmt.Errorf("--to must be specified")
	}
	if cfg.From == "" && !o.all {
		return nil, fmt.Errorf("--from must be specified (or use --all)")
	}
	if o.outputDir != "" && cfg.Output != "" {
		return nil, fmt.Errorf("cannot use both --output-dir and --output flags")
	}
	return cfg, nil
}

func runDiff(ctx context.Context, o diffOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := o.resolve()
	if err != nil {
		return err
	}
	logger := logging.GetLogger()

	opts := &schemadiff.Options{
		Tables:        parseTableList(o.tables),
		ExcludeTables: parseTableList(o.exclude),
		SchemaName:    o.schemaName,
		Diffs:         cfg.Diffs,
		Dialect:       cfg.Dialect,
		Listener:      logging.NewProgressLogger(logger),
	}

	report := &formatter.Report{Origin: cfg.From, Destination: cfg.To}
	if o.all {
		src, err := schemadiff.Open(ctx, cfg.To, opts)
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		defer func() { _ = src.Close(ctx) }()

		report.Origin = ""
		report.Destination = src.Name
		if report.Script, err = schemadiff.Create(src.Database, opts); err != nil {
			return fmt.Errorf("failed to generate script: %w", err)
		}
	} else {
		res, err := schemadiff.DiffURLs(ctx, cfg.From, cfg.To, opts)
		if err != nil {
			return fmt.Errorf("failed to diff schemas: %w", err)
		}
		report.Database, report.Script, report.Messages = res.Database, res.Script, res.Messages
	}

	for _, m := range report.Messages {
		if m.Level == rowdiff.LevelWarning {
			logger.Warn(m.Text, "table", m.Table)
		} else {
			logger.Info(m.Text, "table", m.Table)
		}
	}
	logger.Info("script generated", "statements", len(report.Script))

	if err := writeScript(report, cfg.Output, o.outputDir, stdout); err != nil {
		return err
	}
	if o.report != "" {
		if err := writeReport(o.report, report); err != nil {
			return err
		}
	}
	return nil
}

func scriptHeader(r *formatter.Report) string {
	if r.Origin == "" {
		return "Create script for " + r.Destination
	}
	return fmt.Sprintf("From: %s\nTo: %s", r.Origin, r.Destination)
}

func writeScript(r *formatter.Report, output, outputDir string, stdout io.Writer) error {
	switch {
	case outputDir != "":
		if err := formatter.NewMultiFileFormatter(outputDir).Format(r); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
	case output != "":
		if err := formatter.WriteScriptFile(output, r.Script, scriptHeader(r)); err != nil {
			return err
		}
	default:
		if err := formatter.NewTextFormatter(stdout, scriptHeader(r)).Format(r.Script); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
	}
	return nil
}

func writeReport(path string, r *formatter.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := formatter.NewMarkdownFormatter(f).Format(r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

func runSnapshot(ctx context.Context, o snapshotOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	opts := &schemadiff.Options{
		Tables:        parseTableList(o.tables),
		ExcludeTables: parseTableList(o.exclude),
		SchemaName:    o.schemaName,
		Diffs:         cfg.Diffs,
	}

	d, msgs, err := schemadiff.Snapshot(ctx, o.url, opts)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	logger := logging.GetLogger()
	for _, m := range msgs {
		logger.Warn(m.Text, "table", m.Table)
	}
	if err := schemadiff.SaveSnapshot(o.output, d, schemadiff.RedactURL(o.url)); err != nil {
		return err
	}
	logger.Info("snapshot saved", "file", o.output, "tables", d.Tables.Len())
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
