package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrollsense/scrollsense/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "scrollsense",
	Short: "Browsing-pattern analysis service",
	Long:  "Classifies browsing sessions with Claude, balancing user autonomy against addictive-scrolling patterns, and grants bonus scroll allowances accordingly.",
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
