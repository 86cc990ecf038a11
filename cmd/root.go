package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-lol-coach/internal/config"
	"github.com/pable/go-lol-coach/internal/logging"
	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/storage"
)

var (
	dbPath     string
	configPath string
	logLevel   string
	logJSON    bool

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "lolcoach",
	Short: "League of Legends death pattern coach",
	Long: "Fetch ranked match timelines, extract every death with its context, and track\n" +
		"recurring death patterns across games until they are broken.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { logger.Sync() },
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default ~/.lolcoach/coach.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(deathsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(coachCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup loads configuration and builds the logger. Flags override config.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}
	if !cmd.Flags().Changed("log-json") {
		logJSON = cfg.Log.JSON
	}
	logger, err = logging.New(logLevel, logJSON)
	return err
}

// openDB opens the database, creating its directory if needed.
func openDB() (*storage.DB, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}

// resolvePlayer finds a stored player by Riot ID (Name#TAG) or PUUID.
func resolvePlayer(db *storage.DB, arg string) (*model.Player, error) {
	var (
		p   *model.Player
		err error
	)
	if strings.Contains(arg, "#") {
		p, err = db.GetPlayerByRiotID(arg)
	} else {
		p, err = db.GetPlayerByPUUID(arg)
	}
	if err != nil {
		return nil, fmt.Errorf("look up player: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("no stored player %q: run 'lolcoach analyze %s' first", arg, arg)
	}
	return p, nil
}
