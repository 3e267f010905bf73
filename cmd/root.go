package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/proofcheck/internal/config"
	"github.com/abhisek/proofcheck/internal/logging"
	"github.com/abhisek/proofcheck/internal/store"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "proofcheck",
	Short: "Classify mathematical proofs as valid or invalid",
	Long: `proofcheck decides whether a short mathematical proof is valid.

Short proofs containing known indicator phrases are decided by lexical
rules; everything else goes to a TF-IDF + logistic regression model.
When no model is available the verdict is "unknown".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.proofcheck/config.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides PROOFCHECK_DB env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text or json")

	_ = v.BindPFlag("store.path", pf.Lookup("db"))
	_ = v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log.format", pf.Lookup("log-format"))

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the config file and environment into cfg and sets up
// logging.
func initConfig() error {
	if err := config.Configure(v); err != nil {
		return err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".proofcheck"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, cfg.Log.Format)
	return nil
}

// resolveDBPath returns the database path using --db / store.path first,
// then PROOFCHECK_DB, then the default XDG path.
func resolveDBPath() (string, error) {
	if p := cfg.Store.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens the run database, or returns nil when persistence is
// disabled.
func openStore() (*store.Store, error) {
	if cfg.Store.Disabled {
		return nil, nil
	}
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
