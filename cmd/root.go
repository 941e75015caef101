package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/podcast-kpi/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "podcast-kpi",
	Short: "Podcast guest and topic KPI pipeline",
	Long: `Extracts guest names and topic categories from YouTube video metadata with
language models, merges them into a top-funnel dataset, and ranks topics and
guests by weighted engagement (comments, likes, views).

Stages cache their output; rerun with --force to recompute.`,
	SilenceUsage: true,
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

func init() {
	pf := rootCmd.PersistentFlags()
	pf.Bool("force", false, "recompute stages even when cached")
	pf.String("format", formatTable, "output format: table, csv, json or yaml")
	pf.StringP("output", "o", "", "write results to this file instead of stdout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
