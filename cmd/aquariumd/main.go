// Command aquariumd serves room documents to aquarium clients over HTTP and
// WebSocket, so that planners on different machines share rooms.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium"
	"github.com/aretw0/aquarium/pkg/server"
)

var (
	verbose   bool
	addr      string
	adapter   string
	storePath string
	gitless   bool
	format    string
	ping      time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "aquariumd",
	Short:        "Serve aquarium rooms to remote planners",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		slog.SetDefault(logger)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if adapter == aquarium.AdapterRemote {
			return fmt.Errorf("the server cannot front another server")
		}
		uri := storePath
		if uri == "" && adapter != aquarium.AdapterMemory {
			uri = aquarium.DefaultDataDir()
		}

		opts := []aquarium.Option{
			aquarium.WithAdapter(adapter),
			aquarium.WithAutoInit(true),
			aquarium.WithLogger(slog.Default()),
		}
		if gitless {
			opts = append(opts, aquarium.WithVersioning(false))
		}
		if format != "" {
			opts = append(opts, aquarium.WithFormat(format))
		}

		store, err := aquarium.Init(uri, opts...)
		if err != nil {
			return fmt.Errorf("failed to open %s store: %w", adapter, err)
		}
		if closer, ok := store.(interface{ Close() error }); ok {
			defer func() {
				if err := closer.Close(); err != nil {
					slog.Warn("failed to close store", "error", err)
				}
			}()
		}

		srv := server.New(store,
			server.WithLogger(slog.Default()),
			server.WithPingInterval(ping),
		)
		slog.Info("store ready", "adapter", adapter, "path", uri)
		return srv.ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	flags := rootCmd.Flags()
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&addr, "addr", ":8765", "Listen address")
	flags.StringVar(&adapter, "adapter", aquarium.AdapterFS, "Storage adapter: fs, sqlite or memory")
	flags.StringVar(&storePath, "path", "", "Store location (default the user data dir)")
	flags.BoolVar(&gitless, "gitless", false, "Disable git history for the fs adapter")
	flags.StringVar(&format, "format", "", "Room file format of the fs adapter: json or yaml")
	flags.DurationVar(&ping, "ping", 30*time.Second, "WebSocket keepalive interval")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
