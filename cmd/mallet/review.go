package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/mallet/internal/review"
	"github.com/chris-regnier/mallet/internal/sarif"
	"github.com/chris-regnier/mallet/internal/store"
)

const reviewFile = "review.json"

type reviewFlags struct {
	storeDir string
	root     string
}

func newReviewCmd() *cobra.Command {
	var f reviewFlags
	cmd := &cobra.Command{
		Use:   "review [run-id | sarif-file]",
		Short: "Browse and mark the results of a lint run",
		Long: `Open an interactive browser over the results of a stored lint run, the
newest one when no run is named, or over a SARIF file. Results marked as
confirmed or dismissed are saved beside the run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, args, f)
		},
	}
	cmd.Flags().StringVar(&f.storeDir, "store", ".mallet/runs", "Directory of stored runs")
	cmd.Flags().StringVar(&f.root, "root", "", "Directory result paths are relative to (default: the run's working directory)")
	return cmd
}

func init() {
	rootCmd.AddCommand(newReviewCmd())
}

func runReview(cmd *cobra.Command, args []string, f reviewFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	target := ""
	if len(args) > 0 {
		target = args[0]
	}
	log, runID, statePath, err := loadRun(ctx, store.NewFileStore(f.storeDir), target)
	if err != nil {
		return err
	}

	opts := []review.Option{
		review.WithReviewer(os.Getenv("USER")),
		review.WithSaver(func(s *review.State) error {
			return review.SaveState(s, statePath)
		}),
	}
	if f.root != "" {
		opts = append(opts, review.WithRoot(f.root))
	}
	switch prev, err := review.LoadState(statePath); {
	case err == nil:
		opts = append(opts, review.WithState(prev))
	case !errors.Is(err, os.ErrNotExist):
		slog.Warn("ignoring unreadable review state", "path", statePath, "err", err)
	}

	final, err := tea.NewProgram(review.NewModel(log, runID, opts...), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	m, ok := final.(review.Model)
	if !ok {
		return nil
	}
	if err := m.SaveErr(); err != nil {
		return fmt.Errorf("saving review: %w", err)
	}
	confirmed, dismissed := m.State().Counts()
	fmt.Fprintf(cmd.OutOrStdout(), "%d confirmed, %d dismissed, saved to %s\n", confirmed, dismissed, statePath)
	return nil
}

// loadRun resolves target to a SARIF log and the path its review state is
// kept at. An existing file is read as SARIF, anything else names a stored
// run, and an empty target picks the newest one.
func loadRun(ctx context.Context, fs *store.FileStore, target string) (*sarif.Log, string, string, error) {
	if target != "" {
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			log, err := readSARIFFile(target)
			if err != nil {
				return nil, "", "", err
			}
			base := filepath.Base(target)
			return log, base, target + "." + reviewFile, nil
		}
	}

	id := target
	if id == "" {
		latest, err := fs.Latest(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", "", errors.New("no stored runs to review")
		}
		if err != nil {
			return nil, "", "", err
		}
		id = latest
	}
	log, err := fs.ReadSARIF(ctx, id)
	if err != nil {
		return nil, "", "", fmt.Errorf("loading run %s: %w", id, err)
	}
	return log, id, filepath.Join(fs.RunDir(id), reviewFile), nil
}

func readSARIFFile(path string) (*sarif.Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var log sarif.Log
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &log, nil
}
