package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/mallet/internal/analyzer"
	"github.com/chris-regnier/mallet/internal/evaluator"
	"github.com/chris-regnier/mallet/internal/input"
	"github.com/chris-regnier/mallet/internal/metrics"
	"github.com/chris-regnier/mallet/internal/output"
	"github.com/chris-regnier/mallet/internal/store"
	"github.com/chris-regnier/mallet/internal/telemetry"
)

type lintFlags struct {
	format     string
	fix        bool
	watch      bool
	strict     bool
	stats      bool
	diff       string
	storeDir   string
	keep       int
	policyDir  string
	jobs       int
	noCache    bool
	metricsOut string
}

func newLintCmd() *cobra.Command {
	var f lintFlags
	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint files and directories",
		Long: `Lint the given files and directories, or the current directory when none
are given. Exit status is 2 when the gate rejects the run and 1 on errors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args, f)
		},
	}

	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: json, sarif, markdown, text, pretty (default: pretty on a terminal, text otherwise)")
	cmd.Flags().BoolVar(&f.fix, "fix", false, "Apply corrections and write the files back")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Lint again whenever a watched file changes")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Reject on warnings as well as errors")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "Print run statistics and rule timings to stderr")
	cmd.Flags().StringVar(&f.diff, "diff", "", "Lint the files touched by a unified diff (or - for stdin)")
	cmd.Flags().StringVar(&f.storeDir, "store", "", "Directory to keep SARIF logs and verdicts of each run")
	cmd.Flags().IntVar(&f.keep, "keep", 20, "Number of stored runs to keep")
	cmd.Flags().StringVar(&f.policyDir, "policy", ".mallet/policy", "Directory of Rego gate policies")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "Files processed in parallel (default: configuration, then CPU count)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Do not read or write the lint cache")
	cmd.Flags().StringVar(&f.metricsOut, "metrics-out", "", "Write collected metrics to this JSON file")
	return cmd
}

func init() {
	rootCmd.AddCommand(newLintCmd())
}

// linter runs the lint pipeline: collect, lint or correct, assemble SARIF,
// store, gate and format.
type linter struct {
	analyzer  *analyzer.Analyzer
	handler   *input.Handler
	evaluator *evaluator.Evaluator
	store     *store.FileStore
	formatter output.Formatter
	out       io.Writer
	stdin     io.Reader

	fix   bool
	diff  string
	stats bool
	keep  int
}

func runLint(cmd *cobra.Command, args []string, f lintFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "err", err)
		}
	}()

	a, collector, err := newAnalyzer(cfg, analyzerOptions{noCache: f.noCache, jobs: f.jobs, stats: f.stats || f.metricsOut != ""})
	if err != nil {
		return err
	}

	eval, err := evaluator.NewEvaluator(f.policyDir, evaluator.WithStrict(f.strict))
	if err != nil {
		return fmt.Errorf("creating evaluator: %w", err)
	}

	format := output.ResolveFormat(f.format, isTerminal(os.Stdout))
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}
	if pretty, ok := formatter.(*output.PrettyFormatter); ok {
		pretty.Width = terminalWidth(os.Stdout)
		pretty.NoColor = !isTerminal(os.Stdout)
	}

	l := &linter{
		analyzer:  a,
		handler:   input.NewHandler(cfg.Included, cfg.Excluded),
		evaluator: eval,
		formatter: formatter,
		out:       cmd.OutOrStdout(),
		stdin:     cmd.InOrStdin(),
		fix:       f.fix,
		diff:      f.diff,
		stats:     f.stats,
		keep:      f.keep,
	}
	if f.storeDir != "" {
		l.store = store.NewFileStore(f.storeDir)
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	if f.watch {
		return watch(ctx, paths, cfg.WatchDebounce(), l.handler, func(ctx context.Context) {
			if _, err := l.run(ctx, paths); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("lint failed", "err", err)
			}
		})
	}

	code, err := l.run(ctx, paths)
	if err != nil {
		return err
	}
	if collector != nil {
		if err := writeMetrics(collector, f.stats, f.metricsOut); err != nil {
			return err
		}
	}
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// run performs one pass of the pipeline and returns the exit code.
func (l *linter) run(ctx context.Context, paths []string) (int, error) {
	arts, scope, err := l.collect(paths)
	if err != nil {
		return 1, fmt.Errorf("reading input: %w", err)
	}
	slog.Info("linting", "files", len(arts), "scope", scope, "fix", l.fix)

	var reports []analyzer.FileReport
	if l.fix {
		reports, err = l.analyzer.Correct(ctx, arts, true)
	} else {
		reports, err = l.analyzer.Lint(ctx, arts)
	}
	if err != nil {
		return 1, err
	}

	failed := false
	for _, rep := range reports {
		if rep.Err != nil {
			failed = true
			slog.Error("file not linted", "path", rep.Path, "err", rep.Err)
		}
		if rep.Changed {
			slog.Info("corrected", "path", rep.Path, "corrections", len(rep.Corrections), "passes", rep.Passes)
		}
	}

	log := l.analyzer.SARIF(reports, scope)

	var runID string
	if l.store != nil {
		if runID, err = l.store.WriteSARIF(ctx, log); err != nil {
			return 1, fmt.Errorf("storing SARIF: %w", err)
		}
	}

	verdict, err := l.evaluator.Evaluate(ctx, log)
	if err != nil {
		return 1, fmt.Errorf("evaluating: %w", err)
	}

	if l.store != nil {
		if err := l.store.WriteVerdict(ctx, runID, verdict); err != nil {
			return 1, fmt.Errorf("storing verdict: %w", err)
		}
		if pruned, err := l.store.Prune(ctx, l.keep); err != nil {
			slog.Warn("pruning stored runs failed", "err", err)
		} else if pruned > 0 {
			slog.Debug("pruned stored runs", "count", pruned)
		}
	}

	result := &output.AnalysisOutput{
		Verdict:  verdict,
		SARIFLog: log,
		Sources:  sources(arts, reports),
	}
	if l.stats {
		st := l.analyzer.Stats()
		result.Stats = &st
	}
	data, err := l.formatter.Format(result)
	if err != nil {
		return 1, err
	}
	if _, err := l.out.Write(data); err != nil {
		return 1, err
	}

	code := evaluator.ExitCode(verdict.Decision)
	if code == 0 && failed {
		code = 1
	}
	return code, nil
}

// collect reads the artifacts to lint and names the input scope. Files
// from a diff are filtered by the include and exclude globs.
func (l *linter) collect(paths []string) ([]input.Artifact, string, error) {
	if l.diff == "" {
		arts, err := l.handler.Collect(paths)
		return arts, "files", err
	}

	var data []byte
	var err error
	if l.diff == "-" {
		data, err = io.ReadAll(l.stdin)
	} else {
		data, err = os.ReadFile(l.diff)
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading diff: %w", err)
	}
	var touched []string
	for _, p := range input.ExistingPaths(input.DiffPaths(string(data))) {
		if l.handler.Included(p) && !l.handler.Excluded(p) {
			touched = append(touched, p)
		}
	}
	arts, err := l.handler.ReadFiles(touched)
	return arts, "diff", err
}

// sources maps each path to the text the violations refer to: the
// corrected text when a file changed.
func sources(arts []input.Artifact, reports []analyzer.FileReport) map[string]string {
	out := make(map[string]string, len(arts))
	for _, a := range arts {
		out[a.Path] = a.Content
	}
	for _, rep := range reports {
		if rep.Changed {
			out[rep.Path] = rep.Text
		}
	}
	return out
}

func writeMetrics(collector *metrics.Collector, report bool, path string) error {
	exp := metrics.NewExporter(collector)
	if report {
		if err := exp.WriteReport(os.Stderr); err != nil {
			return fmt.Errorf("writing metrics report: %w", err)
		}
	}
	if path != "" {
		if err := exp.ExportJSON(path); err != nil {
			return fmt.Errorf("exporting metrics: %w", err)
		}
	}
	return nil
}
