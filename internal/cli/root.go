// Package cli implements the Cobra command-line interface for the guard.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/codefactory/guard/internal/config"
	"github.com/codefactory/guard/internal/output"
)

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flag values
var (
	flagConfig  string
	flagOutput  string
	flagJSON    bool
	flagVerbose bool
	flagDB      string
	flagProject string
)

var rootCmd = &cobra.Command{
	Use:   "guard",
	Short: "Content-safety gate for project requests",
	Long: `Guard evaluates free-text project requests before any work starts.

Each request runs through a fixed pipeline: the text is normalized to
defeat obfuscation, matched against critical and confirm rule tables,
analyzed for risky intent, and checked against a whitelist of approved
operations. The stages accumulate evidence into one of three outcomes:

  APPROVED               - No matches, confidence above threshold
  CONFIRMATION REQUIRED  - A confirm rule matched; a human must answer
  BLOCKED                - A critical rule matched, or confidence too low

Every evaluation appends exactly one record to the audit trail.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagProject == "" {
			return nil
		}
		if err := os.Chdir(flagProject); err != nil {
			return fmt.Errorf("changing directory to %s: %w", flagProject, err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		goVersion := runtime.Version()
		configPath := flagConfig
		if configPath == "" {
			home, _ := os.UserHomeDir()
			configPath = filepath.Join(home, ".guard", "config.toml")
		}
		dbPath := GetDB()
		projectPath, _ := os.Getwd()

		payload := map[string]any{
			"version":      version,
			"commit":       commit,
			"build_date":   date,
			"go_version":   goVersion,
			"config_path":  configPath,
			"db_path":      dbPath,
			"project_path": projectPath,
		}

		switch GetOutput() {
		case "json", "yaml":
			out := output.New(output.Format(GetOutput()))
			return out.Write(payload)
		case "text":
			fmt.Printf("guard %s\n", version)
			fmt.Printf("  commit:  %s\n", commit)
			fmt.Printf("  built:   %s\n", date)
			fmt.Printf("  go:      %s\n", goVersion)
			fmt.Printf("  config:  %s\n", configPath)
			fmt.Printf("  db:      %s\n", dbPath)
			fmt.Printf("  project: %s\n", projectPath)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s", GetOutput())
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetOutput returns the configured output format.
// Precedence: CLI flags > GUARD_OUTPUT_FORMAT env > default.
func GetOutput() string {
	if flagJSON {
		return "json"
	}
	if flagOutput != "text" {
		return flagOutput
	}

	if envFormat := os.Getenv("GUARD_OUTPUT_FORMAT"); envFormat != "" {
		switch envFormat {
		case "json", "yaml", "text":
			return envFormat
		}
	}

	return flagOutput
}

// GetDB returns the audit database path.
// Precedence: --db flag > config audit.database_path > project default.
func GetDB() string {
	if flagDB != "" {
		return flagDB
	}
	if cfg, err := loadConfig(); err == nil && cfg.Audit.DatabasePath != "" {
		return cfg.Audit.DatabasePath
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, ".guard", "audit.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".guard", "audit.db")
}

// loadConfig loads configuration honoring the global flags.
func loadConfig() (*config.Config, error) {
	return config.Load(config.LoadOptions{
		UserConfigPath: flagConfig,
	})
}

// newLogger builds the CLI logger from the configured level and --verbose.
func newLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	if flagVerbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "output format: text, json, yaml (env: GUARD_OUTPUT_FORMAT)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "audit database path")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "C", "", "project directory")

	rootCmd.AddCommand(versionCmd)
}
