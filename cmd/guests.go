package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var guestsCmd = &cobra.Command{
	Use:   "guests",
	Short: "Extract guest names from video descriptions",
	Long: `Reads the raw video export and asks the guest provider (OpenRouter by
default) for the guests of each distinct video. The result is cached as
interim/guests_processed.`,
	RunE: runGuests,
}

func init() {
	addInputFlags(guestsCmd)
	rootCmd.AddCommand(guestsCmd)
}

func runGuests(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("input", cfg.Extract.GuestProvider); err != nil {
		return err
	}
	log := zap.L().With(zap.String("command", "guests"))

	raw, err := loadInput(ctx, cmd)
	if err != nil {
		return err
	}

	p, st, err := newPipeline(ctx, cmd, stageDeps{guests: true})
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	out, err := p.AssignGuests(ctx, raw)
	if err != nil {
		return err
	}
	log.Info("guests: done", zap.String("run_id", p.RunID()), zap.Int("rows", out.Len()))
	return writeVideos(cmd, "Guests per video", out)
}
