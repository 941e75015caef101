package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/podcast-kpi/internal/pipeline"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Classify video titles into topic categories",
	Long: `Classifies each distinct video title of the cached guest dataset with the
topic provider (a local Ollama model by default). Run "guests" first. The
result is cached as interim/topics_processed.`,
	RunE: runTopics,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}

func runTopics(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(cfg.Extract.TopicProvider); err != nil {
		return err
	}
	log := zap.L().With(zap.String("command", "topics"))

	p, st, err := newPipeline(ctx, cmd, stageDeps{topics: true})
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	guests, err := p.LoadDataset(ctx, pipeline.KeyGuests)
	if err != nil {
		return err
	}
	out, err := p.AssignTopics(ctx, guests)
	if err != nil {
		return err
	}
	log.Info("topics: done", zap.String("run_id", p.RunID()), zap.Int("rows", out.Len()))
	return writeVideos(cmd, "Topic per video", out)
}
