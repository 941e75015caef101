package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage from the raw export to the KPI tables",
	Long: `Runs guests, topics, funnel and kpis in order. Each stage is skipped when
its output is cached, unless --force is given.`,
	RunE: runAll,
}

func init() {
	addInputFlags(runCmd)
	addKPIFlags(runCmd)
	addTableFlag(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runAll(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(append([]string{"input"}, cfg.ProviderSections()...)...); err != nil {
		return err
	}
	log := zap.L().With(zap.String("command", "run"))

	raw, err := loadInput(ctx, cmd)
	if err != nil {
		return err
	}

	p, st, err := newPipeline(ctx, cmd, stageDeps{guests: true, topics: true})
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	res, err := p.Run(ctx, raw)
	if err != nil {
		return err
	}
	log.Info("run: done", zap.String("run_id", p.RunID()))
	return writeKPIs(cmd, res)
}
