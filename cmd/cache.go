package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/podcast-kpi/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear cached stage artifacts",
}

var cacheListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List cached artifacts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entries, err := st.List(cmd.Context(), prefixArg(args))
		if err != nil {
			return err
		}
		return writeEntries(cmd, entries)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [prefix]",
	Short: "Delete cached artifacts (all of them without a prefix)",
	Long: `Deletes cached artifacts whose key starts with prefix, e.g.

  podcast-kpi cache clear processed/kpis/`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.Clear(cmd.Context(), prefixArg(args))
		if err != nil {
			return err
		}
		zap.L().Info("cache: cleared", zap.String("prefix", prefixArg(args)), zap.Int("entries", n))
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %d cached artifact(s)\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openStore(cmd *cobra.Command) (store.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := store.Open(cmd.Context(), cfg.Store.Driver, cfg.Store.DatabaseURL)
	return st, eris.Wrap(err, "init store")
}

func prefixArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
