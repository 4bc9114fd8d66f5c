package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/patchwave/patchwave/internal/config"
)

var (
	// Global flags
	configPath  string
	catalogPath string
	standalone  bool
	verbose     bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "patchwave",
	Short: "Declarative provisioner for phased software-update rollouts",
	Long: `patchwave provisions the objects a phased update rollout needs on a
management endpoint: device groups, update source packages, and
auto-deployment rules with their deployment phases.

The desired topology is declared once in a catalog file. "install"
creates whatever is missing and leaves existing objects untouched;
"uninstall" tears the topology down in reverse order, skipping groups
that still have active associations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if !verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if standalone {
			cfg.Standalone = true
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "catalog.yaml", "Catalog file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&standalone, "standalone", false, "Provision into the local state DB instead of a remote endpoint")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
