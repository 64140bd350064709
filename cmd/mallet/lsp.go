package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/mallet/internal/lsp"
	"github.com/chris-regnier/mallet/internal/telemetry"
)

func newLSPCmd() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start mallet in LSP mode to lint files as you edit them.

The server speaks JSON-RPC on stdin/stdout. Open documents are linted after
each change settles, and code actions offer corrections and disable commands.
Configuration is loaded from the machine and project config files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLSP(cmd.Context(), noCache)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Lint without reading or writing the cache")
	return cmd
}

func runLSP(ctx context.Context, noCache bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
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

	c := newCache(cfg)
	a, _, err := newAnalyzer(cfg, analyzerOptions{noCache: noCache, cache: c})
	if err != nil {
		return err
	}
	wrapper := lsp.NewAnalyzerWrapper(a)

	serverConfig := lsp.ServerConfigFromConfig(cfg)
	serverConfig.Version = version

	server := lsp.NewServerWithConfig(bufio.NewReader(os.Stdin), bufio.NewWriter(os.Stdout), wrapper.Lint, wrapper.Fix, serverConfig)
	if !noCache && cfg.CacheEnabled() {
		server.SetCacheManager(c)
	}

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("LSP server error: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newLSPCmd())
}
