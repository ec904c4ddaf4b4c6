package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/config"
	"github.com/pable/go-scout-metrics/internal/logging"
)

var (
	dbPath     string
	configPath string
	logLevel   string
)

var (
	cfg    = config.New()
	logger = logrus.FieldLogger(logrus.StandardLogger())
)

var rootCmd = &cobra.Command{
	Use:   "scoutmetrics",
	Short: "Cross-league football player scoring",
	Long: `Import season statistics for players across leagues, normalize them for team
and league context, and rank players per role by performance, age and value.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file (default $"+config.EnvConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(leaguesCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

// loadConfig layers file and environment configuration, then applies any
// explicitly set persistent flags on top.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DB = dbPath
	} else {
		dbPath = cfg.DB
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	logger = logging.WithCommand(cmd.Name())
	return nil
}
