package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium"
	"github.com/aretw0/aquarium/internal/prefs"
	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/session"
)

var (
	verbose    bool
	adapter    string
	storePath  string
	serverAddr string
	prefsPath  string
	format     string
	gitless    bool
	pathWrites bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aquarium",
	Short: "A shared planner: calendar, tasks, mood, diary and vision board",
	Long: `Aquarium keeps a calendar of tasks, moods and diary entries plus a vision
board, shared in real time by everyone who knows the room secret.`,
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
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&adapter, "adapter", "", "Storage adapter: fs, sqlite, memory or remote (default fs)")
	flags.StringVar(&storePath, "path", "", "Store location: a directory for fs, a database file for sqlite")
	flags.StringVar(&serverAddr, "server", "", "Sync server address; implies --adapter remote")
	flags.StringVar(&prefsPath, "prefs", prefs.DefaultPath(), "Preferences file")
	flags.StringVar(&format, "format", "", "Room file format of the fs adapter: json or yaml")
	flags.BoolVar(&gitless, "gitless", false, "Disable git history for the fs adapter")
	flags.BoolVar(&pathWrites, "path-writes", false, "Write changes as JSON patches instead of full documents")
}

// storeSettings merges the persisted preferences under the flags the user set.
func storeSettings(cmd *cobra.Command) (string, string, bool) {
	p, _ := prefs.Load(prefsPath)
	flags := cmd.Flags()

	name, uri, paths := adapter, storePath, pathWrites
	if !flags.Changed("adapter") && p.Adapter != "" {
		name = p.Adapter
	}
	if !flags.Changed("path") && p.Path != "" {
		uri = p.Path
	}
	if !flags.Changed("path-writes") && p.PathWrites {
		paths = true
	}

	server := serverAddr
	if !flags.Changed("server") && !flags.Changed("adapter") && p.Server != "" {
		server = p.Server
	}
	if server != "" && (name == "" || name == aquarium.AdapterRemote) {
		return aquarium.AdapterRemote, server, paths
	}

	if name == "" {
		name = aquarium.AdapterFS
	}
	if uri == "" && name == aquarium.AdapterFS {
		if cwd, err := os.Getwd(); err == nil {
			uri, _ = aquarium.FindStoreRoot(cwd)
		}
	}
	if uri == "" && (name == aquarium.AdapterFS || name == aquarium.AdapterSQLite) {
		uri = aquarium.DefaultDataDir()
	}
	return name, uri, paths
}

func openStore(cmd *cobra.Command) (core.Store, error) {
	name, uri, _ := storeSettings(cmd)

	opts := []aquarium.Option{
		aquarium.WithAdapter(name),
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
		return nil, fmt.Errorf("failed to open %s store: %w", name, err)
	}
	return store, nil
}

func roomPrefs() *prefs.File {
	return prefs.NewFile(prefsPath)
}

func newSession(cmd *cobra.Command, store core.Store, extra ...session.Option) *session.Session {
	_, _, paths := storeSettings(cmd)
	opts := []session.Option{
		session.WithLogger(slog.Default()),
		session.WithPrefs(roomPrefs()),
		session.WithPathWrites(paths),
		session.WithErrorHandler(func(err error) {
			slog.Warn("session error", "error", err)
		}),
	}
	return session.New(store, append(opts, extra...)...)
}

// openRoom connects to the persisted room (asking for one when none is
// set) and waits for its document. The returned func flushes and closes.
func openRoom(cmd *cobra.Command, extra ...session.Option) (*session.Session, func() error, error) {
	store, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	sess := newSession(cmd, store, extra...)
	if err := sess.Connect(ctx, stdinPrompt(cmd)); err != nil {
		if errors.Is(err, core.ErrEmptyRoom) {
			return nil, nil, fmt.Errorf("no room selected; run `aquarium connect` first")
		}
		return nil, nil, err
	}

	closeFn := func() error {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return sess.Close(closeCtx)
	}

	select {
	case <-sess.Ready():
	case <-time.After(10 * time.Second):
		_ = closeFn()
		return nil, nil, fmt.Errorf("timed out loading room")
	case <-ctx.Done():
		_ = closeFn()
		return nil, nil, ctx.Err()
	}
	return sess, closeFn, nil
}

// readLine reads one line from the command input.
func readLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func stdinPrompt(cmd *cobra.Command) session.Prompt {
	return func(context.Context) (string, error) {
		return readLine(cmd, "Room secret: ")
	}
}

// confirmer approves destructive actions: always with --yes, otherwise
// after a y/N answer on stdin.
func confirmer(cmd *cobra.Command, yes bool) planner.Confirmer {
	if yes {
		return planner.AlwaysConfirm
	}
	return planner.ConfirmFunc(func(ctx context.Context, prompt string) bool {
		answer, err := readLine(cmd, prompt+" [y/N] ")
		if err != nil {
			return false
		}
		answer = strings.ToLower(answer)
		return answer == "y" || answer == "yes"
	})
}
