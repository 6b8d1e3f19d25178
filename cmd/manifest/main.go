// Command manifest turns Shopify order exports into carrier manifests.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/config"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
)

// skipConfig marks commands that run without loading the config file.
const skipConfig = "skip-config"

var (
	// Global flags
	verbose    bool
	configPath string

	// Set by PersistentPreRunE
	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "manifest",
	Short: "CM Logistics manifest generator",
	Long: `Builds per-carrier delivery manifests from Shopify order exports.

Orders are grouped by order number, meal counts are turned into shipping
labels using the customer group's rules, and each order is routed to the
CM, MC, CX or DK manifest by its tags. The spreadsheets and derived
documents (CX-Ready, Polar Parcel, DK distribution) are packed into one zip.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if _, ok := cmd.Annotations[skipConfig]; ok {
			cfg = config.DefaultConfig()
			return nil
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		if err := logging.Initialize(cfg.Logging.Options()); err != nil {
			return fmt.Errorf("failed to initialize category logs: %w", err)
		}
		if err := logging.InitAudit(); err != nil {
			logger.Warn("audit log unavailable", zap.Error(err))
		}
		var categories []string
		for _, c := range logging.AllCategories {
			if cfg.Logging.IsCategoryEnabled(string(c)) {
				categories = append(categories, string(c))
			}
		}
		logging.Boot("config loaded from %s (%d groups)", configPath, len(cfg.Groups))
		logger.Debug("config loaded",
			zap.String("path", configPath),
			zap.Int("groups", len(cfg.Groups)),
			zap.Strings("category_logs", categories))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAudit()
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Configuration file")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
