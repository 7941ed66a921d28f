package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/b0uh/Google-Calendar-events-deletion/internal/core"
	"github.com/b0uh/Google-Calendar-events-deletion/internal/logging"
	"github.com/b0uh/Google-Calendar-events-deletion/internal/report"
	"github.com/b0uh/Google-Calendar-events-deletion/internal/sweep"
)

// Set at build time with -ldflags "-X .../cmd.version=..."
var version = "dev"

var (
	// Lower bound of every sweep window
	windowStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	// Upper bound used by --delete-all
	farFuture = time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)
)

var logger *slog.Logger

// providerFor builds the calendar provider named by the provider setting.
var providerFor = newAuthProvider

var rootCmd = &cobra.Command{
	Use:   "calsweep",
	Short: "Delete past events from your main calendar",
	Long: `calsweep moves every event that already ended to your calendar's trash.

Recurring events are deleted as a whole once their last occurrence is over.
Without --confirm-delete nothing is deleted: the run only prints what would go.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initLogger,
	RunE:              runSweep,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().Bool("confirm-delete", false, "Really delete events (default is a simulation)")
	rootCmd.Flags().Bool("delete-all", false, "Also delete future events, up to the year 3000")

	rootCmd.PersistentFlags().String("provider", "", "Calendar provider: google or outlook")
	rootCmd.PersistentFlags().String("log-level", "", "Diagnostics level: debug, info, warn or error")

	viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Environment variables
	viper.SetEnvPrefix("CALSWEEP")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("provider", "google")
	viper.SetDefault("credentials_file", "credentials.json")
	viper.SetDefault("token_file", "token.json")
	viper.SetDefault("tenant_id", "common")
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("delete_delay", sweep.DefaultDeleteDelay)
}

func initLogger(cmd *cobra.Command, args []string) error {
	var err error
	logger, err = logging.New(os.Stderr, viper.GetString("log_level"))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// runSweep reads the destructive switches from the command line only, so
// no environment variable can turn a simulation into real deletions.
func runSweep(cmd *cobra.Command, args []string) error {
	confirm, err := cmd.Flags().GetBool("confirm-delete")
	if err != nil {
		return err
	}
	deleteAll, err := cmd.Flags().GetBool("delete-all")
	if err != nil {
		return err
	}
	window := sweepWindow(time.Now(), deleteAll)

	provider, err := providerFor(viper.GetString("provider"))
	if err != nil {
		return err
	}

	reporter := report.New(cmd.OutOrStdout(), provider.Trash)
	reporter.Banner(window, confirm)

	// Authentication may open a browser, so it happens after the banner.
	service, err := provider.Service(cmd.Context())
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	sweeper := sweep.New(service, window,
		sweep.WithConfirm(confirm),
		sweep.WithDeleteDelay(viper.GetDuration("delete_delay")),
		sweep.WithLogger(logging.WithProvider(logger, provider.Name)),
		sweep.WithReporter(reporter),
	)

	summary, err := sweeper.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep aborted: %w", err)
	}

	reporter.Summary(summary.Trashed(), summary.AlreadyDeleted, summary.Failed, confirm)
	return nil
}

// sweepWindow returns the window of events to consider. Without deleteAll
// only events that ended before now are candidates.
func sweepWindow(now time.Time, deleteAll bool) core.Window {
	end := now
	if deleteAll {
		end = farFuture
	}
	return core.NewWindow(windowStart, end)
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
