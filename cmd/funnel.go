package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/podcast-kpi/internal/pipeline"
)

var funnelCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Merge guests and topics into the top-funnel dataset",
	Long: `Joins the cached guest and topic datasets into one row per video
(missing topics become "other") and caches it as processed/top_funnel_ready.`,
	RunE: runFunnel,
}

func init() {
	rootCmd.AddCommand(funnelCmd)
}

func runFunnel(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}
	log := zap.L().With(zap.String("command", "funnel"))

	p, st, err := newPipeline(ctx, cmd, stageDeps{})
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	guests, err := p.LoadDataset(ctx, pipeline.KeyGuests)
	if err != nil {
		return err
	}
	topics, err := p.LoadDataset(ctx, pipeline.KeyTopics)
	if err != nil {
		return err
	}
	out, err := p.PrepareTopFunnel(ctx, guests, topics)
	if err != nil {
		return err
	}
	log.Info("funnel: done", zap.String("run_id", p.RunID()), zap.Int("videos", out.Len()))
	return writeVideos(cmd, "Top funnel", out)
}
