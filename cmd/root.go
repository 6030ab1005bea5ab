package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fundcomp/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fundcomp",
	Short: "Fund portfolio composition from CVM monthly disclosures",
	Long:  "Downloads the CVM CDA monthly portfolio archives, filters them to one fund and reports its holdings by category as a percentage time series.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
