package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"mediasort/internal/app"
	"mediasort/internal/config"
	"mediasort/internal/domain"
	appErrors "mediasort/internal/errors"
	"mediasort/internal/infra/exif"
	"mediasort/internal/infra/fs"
	"mediasort/internal/infra/geocode"
	"mediasort/internal/infra/hash"
	"mediasort/internal/logging"
	"mediasort/internal/presentation"
	"mediasort/internal/tui"
	"mediasort/internal/txlog"
)

var appVersion = "0.1.0"

var (
	cfg           config.Config
	cfgFile       string
	moveMode      bool
	assumeYes     bool
	rollbackBatch string
)

var rootCmd = &cobra.Command{
	Use:   "mediasort",
	Short: "Organize media files into a destination tree from a path template",
	Long: `mediasort scans a source tree for media files, derives a capture date
(and optionally a location and checksum) per file, and copies or moves each
file to a destination path built from a template such as
"{year}/{month}/{name}{ext}". Name collisions get a numeric suffix; every
mutation is written to a transaction log that "mediasort rollback" can undo.`,
	RunE: run,
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <logfile>",
	Short: "Undo the newest batch recorded in a transaction log",
	Args:  cobra.ExactArgs(1),
	RunE:  runRollback,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(appVersion)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&cfg.SourceDir, "source", "s", "", "source directory to organize from")
	flags.StringVarP(&cfg.DestDir, "dest", "d", "", "destination directory to organize into")
	flags.StringVarP(&cfg.Template, "template", "t", "", "destination path template (default \"{year}/{month}/{name}{ext}\")")
	flags.BoolVar(&moveMode, "move", false, "move files instead of copying")
	flags.BoolVar(&cfg.DryRun, "dry-run", false, "plan only, touch nothing")
	flags.BoolVar(&cfg.SkipExisting, "skip-existing", false, "skip entries whose destination path already exists (by name, not content)")
	flags.BoolVar(&cfg.Checksum, "checksum", false, "record a SHA-256 content checksum per file in the plan and transaction log")
	flags.BoolVar(&cfg.Geocode, "geocode", false, "resolve GPS coordinates to place names for {location}")
	flags.StringSliceVar(&cfg.Extensions, "extensions", nil, "extension allowlist (default: common photo/video formats)")
	flags.StringVar(&cfg.SuffixFormat, "suffix-format", "", "duplicate-name suffix format (default \"_%d\")")
	flags.StringVar(&cfg.StartDate, "start-date", "", "exclude files dated before this day (YYYY-MM-DD)")
	flags.StringVar(&cfg.EndDate, "end-date", "", "exclude files dated after this day (YYYY-MM-DD)")
	flags.StringVar(&cfg.LogFile, "log", "", "transaction log path (default <dest>/.mediasort-tx.log)")
	flags.IntVar(&cfg.Workers, "workers", 0, "enrichment workers (default: CPU count)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&cfg.Plain, "plain", false, "plain text output instead of the interactive UI")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation before executing")
	flags.StringVarP(&cfgFile, "config", "c", "", "YAML config file")

	rollbackCmd.Flags().StringVar(&rollbackBatch, "batch", "", "batch id to roll back (default: the newest batch in the log)")

	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, appErrors.UserMessage(err))
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := context.Background()

	if cfgFile != "" {
		if err := config.LoadFile(cfgFile, &cfg); err != nil {
			return appErrors.Wrap(appErrors.InvalidConfig, "config", cfgFile, err)
		}
	}
	if moveMode && cfg.Mode == "" {
		cfg.Mode = "move"
	}

	settings, err := cfg.Resolve()
	if err != nil {
		return appErrors.Wrap(appErrors.InvalidConfig, "config", "", err)
	}

	filesystem := fs.OSFS{}
	if _, err := filesystem.Stat(settings.SourceDir); err != nil {
		return appErrors.Wrap(appErrors.NotFound, "stat", settings.SourceDir, err)
	}

	var geocoder app.Geocoder
	if settings.Geocode {
		geocoder = geocode.NewClient()
	}

	logger := logging.New(os.Stderr, settings.Verbose)
	planner := &app.Planner{
		FS: filesystem,
		Enricher: &app.Enricher{
			Metadata:     exif.Reader{},
			Geocoder:     geocoder,
			Hasher:       hash.SHA256{},
			WithChecksum: settings.Checksum,
		},
		Template:     settings.Template,
		Allowed:      settings.Allowed,
		Mode:         settings.Mode,
		SuffixFormat: settings.SuffixFormat,
		SkipExisting: settings.SkipExisting,
		Workers:      settings.Workers,
		Logger:       logger,
		Validators: []app.Validator{
			app.DateRangeValidator{Start: settings.StartDate, End: settings.EndDate},
		},
	}

	if settings.Plain {
		return runPlain(ctx, settings, filesystem, planner, logger)
	}
	return runTUI(ctx, settings, filesystem, planner)
}

func runPlain(ctx context.Context, settings config.Settings, filesystem fs.OSFS, planner *app.Planner, logger logging.Logger) error {
	plan, err := planner.Plan(ctx, settings.SourceDir, settings.DestDir)
	if err != nil {
		return appErrors.Wrap(appErrors.Internal, "plan", settings.SourceDir, err)
	}

	printer := presentation.Printer{Writer: os.Stdout, Verbose: settings.Verbose}
	printer.PrintPlan(plan)

	executor := &app.Executor{FS: filesystem, Logger: logger}

	if settings.DryRun {
		summary, err := executor.Execute(ctx, plan, app.Options{DryRun: true, SkipExisting: settings.SkipExisting})
		if err != nil {
			return appErrors.Wrap(appErrors.Internal, "plan", settings.DestDir, err)
		}
		printer.PrintSummary(summary, true)
		return nil
	}

	if len(plan.Entries) == 0 {
		printer.PrintSummary(domain.Summary{}, false)
		return nil
	}

	if !assumeYes {
		confirmed, err := confirm(len(plan.Entries), settings.Mode.String())
		if err != nil {
			return appErrors.Wrap(appErrors.Internal, "prompt", "", err)
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := filesystem.MkdirAll(settings.DestDir, 0o755); err != nil {
		return appErrors.Wrap(appErrors.IOFailure, "mkdir", settings.DestDir, err)
	}

	log, err := txlog.Open(logPath(settings))
	if err != nil {
		return appErrors.Wrap(appErrors.IOFailure, "txlog", logPath(settings), err)
	}
	executor.Log = log

	summary, execErr := executor.Execute(ctx, plan, app.Options{SkipExisting: settings.SkipExisting})
	if err := log.Close(); err != nil {
		logger.Warnf("closing transaction log: %v", err)
	}
	if execErr != nil {
		return appErrors.Wrap(appErrors.IOFailure, settings.Mode.String(), settings.DestDir, execErr)
	}

	printer.PrintSummary(summary, false)
	if summary.Failed > 0 {
		fmt.Printf("Transaction log: %s\n", logPath(settings))
	}
	return nil
}

func runTUI(ctx context.Context, settings config.Settings, filesystem fs.OSFS, planner *app.Planner) error {
	var program *tea.Program

	executor := &app.Executor{FS: filesystem, Logger: planner.Logger}

	model := tui.NewModel(tui.Config{
		SourceDir: settings.SourceDir,
		DestDir:   settings.DestDir,
		Mode:      settings.Mode,
		DryRun:    settings.DryRun,
		Verbose:   settings.Verbose,
		Execute: func(plan domain.Plan) tea.Cmd {
			return func() tea.Msg {
				if err := filesystem.MkdirAll(settings.DestDir, 0o755); err != nil {
					return tui.ErrorMsg{Err: err}
				}
				log, err := txlog.Open(logPath(settings))
				if err != nil {
					return tui.ErrorMsg{Err: err}
				}
				defer log.Close()

				executor.Log = log
				executor.OnProgress = func(current, total int) {
					program.Send(tui.ExecProgressMsg{Current: current, Total: total})
				}
				summary, err := executor.Execute(ctx, plan, app.Options{SkipExisting: settings.SkipExisting})
				if err != nil {
					return tui.ErrorMsg{Err: err}
				}
				return tui.ExecDoneMsg{Summary: summary}
			}
		},
	})

	program = tea.NewProgram(model)

	go func() {
		planner.OnProgress = func(current, total int) {
			program.Send(tui.ScanProgressMsg{Current: current, Total: total})
		}
		plan, err := planner.Plan(ctx, settings.SourceDir, settings.DestDir)
		if err != nil {
			program.Send(tui.ErrorMsg{Err: err})
			return
		}
		program.Send(tui.PlanReadyMsg{Plan: plan})
	}()

	_, err := program.Run()
	return err
}

func runRollback(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := context.Background()

	records, err := txlog.Read(args[0])
	if err != nil {
		return appErrors.Wrap(appErrors.IOFailure, "txlog", args[0], err)
	}
	if len(records) == 0 {
		fmt.Println("Nothing to roll back.")
		return nil
	}

	// The log accumulates batches across runs; undo exactly one.
	batch := rollbackBatch
	if batch == "" {
		batch = records[len(records)-1].Batch
	}
	batchRecords := txlog.ForBatch(records, batch)
	if len(batchRecords) == 0 {
		return appErrors.Wrap(appErrors.NotFound, "rollback", args[0], fmt.Errorf("no records for batch %s", batch))
	}

	executor := &app.Executor{FS: fs.OSFS{}, Logger: logging.New(os.Stderr, cfg.Verbose)}
	errs := executor.Rollback(ctx, batchRecords)

	printer := presentation.Printer{Writer: os.Stdout}
	printer.PrintRollback(len(batchRecords), errs)
	if len(errs) > 0 {
		// Keep the records so the failed operations can be retried.
		return appErrors.Wrap(appErrors.IOFailure, "rollback", args[0], fmt.Errorf("%d operations could not be undone", len(errs)))
	}

	if err := txlog.Prune(args[0], batch); err != nil {
		return appErrors.Wrap(appErrors.IOFailure, "txlog", args[0], err)
	}
	return nil
}

func logPath(settings config.Settings) string {
	if settings.LogFile != "" {
		return settings.LogFile
	}
	return filepath.Join(settings.DestDir, ".mediasort-tx.log")
}

func confirm(count int, verb string) (bool, error) {
	if verb == "move" {
		verb = "Move"
	} else {
		verb = "Copy"
	}
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s %d files? [y/N]: ", verb, count)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}
