package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/podcast-kpi/internal/config"
	"github.com/sells-group/podcast-kpi/internal/cost"
	"github.com/sells-group/podcast-kpi/internal/extract"
	"github.com/sells-group/podcast-kpi/internal/fetcher"
	"github.com/sells-group/podcast-kpi/internal/kpi"
	"github.com/sells-group/podcast-kpi/internal/model"
	"github.com/sells-group/podcast-kpi/internal/pipeline"
	"github.com/sells-group/podcast-kpi/internal/store"
	"github.com/sells-group/podcast-kpi/pkg/anthropic"
	"github.com/sells-group/podcast-kpi/pkg/openai"
)

// stageDeps selects which extractors a command needs.
type stageDeps struct {
	guests bool
	topics bool
}

// newPipeline opens the configured store and builds a pipeline with the
// extractors the command needs. The caller closes the returned store.
func newPipeline(ctx context.Context, cmd *cobra.Command, deps stageDeps) (*pipeline.Pipeline, store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "init store")
	}

	var (
		guests pipeline.GuestExtractor
		topics pipeline.TopicClassifier
	)
	if deps.guests {
		llm, err := newCompleter(cfg, cfg.Extract.GuestProvider)
		if err != nil {
			_ = st.Close()
			return nil, nil, err
		}
		guests = extract.NewGuestExtractor(llm, guestOptions(cfg))
	}
	if deps.topics {
		llm, err := newCompleter(cfg, cfg.Extract.TopicProvider)
		if err != nil {
			_ = st.Close()
			return nil, nil, err
		}
		topics = extract.NewTopicClassifier(llm, extract.DefaultTopicOptions())
	}

	force, _ := cmd.Flags().GetBool("force")
	opts := pipeline.Options{
		Force:             force,
		RequestsPerSecond: cfg.Extract.RequestsPerSecond,
		ShowProgress:      cfg.Extract.ShowProgress,
		Progress:          cmd.ErrOrStderr(),
		KPI:               guestKPIOptions(cmd),
	}
	return pipeline.New(st, guests, topics, cost.NewCalculator(cfg.Rates()), opts), st, nil
}

// newCompleter builds the language-model backend for provider.
func newCompleter(c *config.Config, provider string) (extract.Completer, error) {
	switch provider {
	case config.ProviderOpenRouter:
		client := openai.NewClient(c.OpenRouter.Key, c.OpenRouter.BaseURL)
		return extract.NewOpenAICompleter(client, c.OpenRouter.Model), nil
	case config.ProviderOllama:
		client := openai.NewClient("", c.Ollama.BaseURL)
		return extract.NewOpenAICompleter(client, c.Ollama.Model), nil
	case config.ProviderAnthropic:
		client := anthropic.NewClient(c.Anthropic.Key, c.Anthropic.BaseURL)
		return extract.NewAnthropicCompleter(client, c.Anthropic.Model), nil
	default:
		return nil, eris.Errorf("unknown provider %q", provider)
	}
}

func guestOptions(c *config.Config) extract.GuestOptions {
	opts := extract.DefaultGuestOptions()
	switch c.Extract.GuestProvider {
	case config.ProviderOpenRouter:
		opts.MaxTokens = c.OpenRouter.MaxTokens
		opts.Temperature = c.OpenRouter.Temperature
	case config.ProviderAnthropic:
		opts.MaxTokens = c.Anthropic.MaxTokens
	}
	return opts
}

// guestKPIOptions merges the kpi config section with command flags.
func guestKPIOptions(cmd *cobra.Command) kpi.GuestOptions {
	opts := kpi.GuestOptions{
		Threshold:      cfg.KPI.NameMatchThreshold,
		Weights:        cfg.KPI.Weights,
		IncludeUnnamed: cfg.KPI.IncludeUnnamedGuests,
	}
	if f := cmd.Flags().Lookup("threshold"); f != nil && f.Changed {
		opts.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if f := cmd.Flags().Lookup("include-unnamed"); f != nil && f.Changed {
		opts.IncludeUnnamed, _ = cmd.Flags().GetBool("include-unnamed")
	}
	return opts
}

// loadInput reads the raw export named by --input (or input.path) and
// keeps the first --limit videos.
func loadInput(ctx context.Context, cmd *cobra.Command) (*model.Dataset, error) {
	path := cfg.Input.Path
	if f := cmd.Flags().Lookup("input"); f != nil && f.Changed {
		path = f.Value.String()
	}
	var (
		ds  *model.Dataset
		err error
	)
	if cfg.Input.Sheet != "" {
		ds, err = fetcher.ReadVideosXLSX(ctx, path, fetcher.XLSXOptions{SheetName: cfg.Input.Sheet})
	} else {
		ds, err = fetcher.Load(ctx, path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "load input %s", path)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	return pipeline.Head(ds, limit), nil
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "raw video export (.csv, .xlsx or .json); defaults to input.path")
	cmd.Flags().Int("limit", 0, "process only the first N videos (0 = all)")
}

func addKPIFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("threshold", kpi.DefaultNameMatchThreshold, "guest name match threshold (0-100)")
	cmd.Flags().Bool("include-unnamed", false, "rank videos without named guests as \""+kpi.UnnamedGuest+"\"")
}
