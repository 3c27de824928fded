package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/notes/internal/config"
)

var (
	verbose    bool
	configDir  string
	noRealtime bool

	// cfg is loaded once by PersistentPreRunE.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notes",
	Short: "A list/detail notes client over Supabase or a local SQLite database",
	Long: `notes keeps a session of notes in step with a hosted database.
Local edits are applied optimistically and the backend's realtime change feed
is merged into the same session.

Point it at a Supabase project with SUPABASE_URL and SUPABASE_KEY, or at a
local database with --url sqlite://notes.db.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(config.Options{Dir: configDir, Flags: cmd.Flags()})
		if err != nil {
			return err
		}
		cfg = loaded
		if noRealtime {
			cfg.Realtime = false
		}

		opts := &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signalContext()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default: $NOTES_CONFIG_DIR or the user config dir)")
	rootCmd.PersistentFlags().String("url", "", "backend URL (https://<project>.supabase.co or sqlite://<path>)")
	rootCmd.PersistentFlags().String("key", "", "backend access key")
	rootCmd.PersistentFlags().BoolVar(&noRealtime, "no-realtime", false, "Disable the realtime change feed")
}

func logLevel(name string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
