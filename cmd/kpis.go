package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/podcast-kpi/internal/model"
	"github.com/sells-group/podcast-kpi/internal/pipeline"
)

var kpisCmd = &cobra.Command{
	Use:   "kpis",
	Short: "Rank topics and guests by weighted engagement",
	Long: `Computes the topic and guest KPI tables from the cached top-funnel
dataset. Scores weigh normalized comments 0.5, likes 0.3 and views 0.2 unless
kpi.weights says otherwise; rank 1 is the best.

Examples:
  # Both tables in the terminal
  podcast-kpi kpis

  # Guest ranking as CSV, with a looser name match
  podcast-kpi kpis --table guests --threshold 85 --format csv -o guests.csv`,
	RunE: runKPIs,
}

func init() {
	addKPIFlags(kpisCmd)
	addTableFlag(kpisCmd)
	rootCmd.AddCommand(kpisCmd)
}

func addTableFlag(cmd *cobra.Command) {
	cmd.Flags().String("table", "both", "which table to print: topics, guests or both")
}

func runKPIs(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}
	log := zap.L().With(zap.String("command", "kpis"))

	p, st, err := newPipeline(ctx, cmd, stageDeps{})
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	funnel, err := p.LoadDataset(ctx, pipeline.KeyTopFunnel)
	if err != nil {
		return err
	}
	res, err := p.ComputeKPIs(ctx, funnel)
	if err != nil {
		return err
	}
	log.Info("kpis: done", zap.String("run_id", p.RunID()),
		zap.Int("topics", len(res.Topics)), zap.Int("guests", len(res.Guests)))
	return writeKPIs(cmd, res)
}

// writeKPIs prints the tables selected by --table. With --output and both
// tables, each goes to its own suffixed file.
func writeKPIs(cmd *cobra.Command, res *model.KPIResult) error {
	which, _ := cmd.Flags().GetString("table")
	switch which {
	case "topics":
		return writeTopicStats(cmd, outputPath(cmd, ""), res.Topics)
	case "guests":
		return writeGuestStats(cmd, outputPath(cmd, ""), res.Guests)
	case "both":
		if err := writeTopicStats(cmd, outputPath(cmd, "topics"), res.Topics); err != nil {
			return err
		}
		return writeGuestStats(cmd, outputPath(cmd, "guests"), res.Guests)
	default:
		return eris.Errorf("unknown table %q (want topics, guests or both)", which)
	}
}
