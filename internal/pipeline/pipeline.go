// Package pipeline runs the KPI stages in order (guest extraction, topic
// classification, top-funnel merge and KPI computation) and caches the
// output of each stage in a store.Store.
package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/podcast-kpi/internal/cost"
	"github.com/sells-group/podcast-kpi/internal/extract"
	"github.com/sells-group/podcast-kpi/internal/kpi"
	"github.com/sells-group/podcast-kpi/internal/model"
	"github.com/sells-group/podcast-kpi/internal/store"
)

// Cache keys of the stage artifacts.
const (
	KeyGuests     = "interim/guests_processed"
	KeyTopics     = "interim/topics_processed"
	KeyTopFunnel  = "processed/top_funnel_ready"
	KeyTopicStats = "processed/kpis/topic_stats"
	KeyGuestStats = "processed/kpis/guest_stats"
)

// GuestExtractor returns the guests named in a video description.
type GuestExtractor interface {
	Extract(ctx context.Context, description string) []string
	Usage() extract.Usage
	Model() string
}

// TopicClassifier returns the topic of a video title.
type TopicClassifier interface {
	Classify(ctx context.Context, title string) model.Topic
	Usage() extract.Usage
	Model() string
}

// Options tunes a Pipeline.
type Options struct {
	// Force recomputes stages even when their artifact is cached.
	Force bool
	// RequestsPerSecond paces language-model calls; 0 disables pacing.
	RequestsPerSecond float64
	// ShowProgress draws a progress bar on Progress during extraction.
	ShowProgress bool
	Progress     io.Writer
	// KPI configures name reconciliation, score weights and the clock.
	KPI kpi.GuestOptions
}

// Pipeline orchestrates the KPI stages.
type Pipeline struct {
	store    store.Store
	guests   GuestExtractor
	topics   TopicClassifier
	costCalc *cost.Calculator
	opts     Options
	runID    string
	log      *zap.Logger
}

// New creates a Pipeline. The extractors may be nil for commands that only
// run the later stages.
func New(st store.Store, guests GuestExtractor, topics TopicClassifier, costCalc *cost.Calculator, opts Options) *Pipeline {
	if costCalc == nil {
		costCalc = cost.NewCalculator(cost.DefaultRates())
	}
	if opts.Progress == nil {
		opts.Progress = os.Stderr
	}
	runID := uuid.New().String()
	return &Pipeline{
		store:    st,
		guests:   guests,
		topics:   topics,
		costCalc: costCalc,
		opts:     opts,
		runID:    runID,
		log:      zap.L().With(zap.String("run_id", runID)),
	}
}

// RunID identifies this pipeline instance in logs.
func (p *Pipeline) RunID() string { return p.runID }

// Run executes every stage on the raw dataset and returns both KPI tables.
func (p *Pipeline) Run(ctx context.Context, raw *model.Dataset) (*model.KPIResult, error) {
	start := time.Now()
	p.log.Info("pipeline: starting", zap.Int("rows", raw.Len()), zap.Bool("force", p.opts.Force))

	guests, err := p.AssignGuests(ctx, raw)
	if err != nil {
		return nil, err
	}
	topics, err := p.AssignTopics(ctx, guests)
	if err != nil {
		return nil, err
	}
	funnel, err := p.PrepareTopFunnel(ctx, guests, topics)
	if err != nil {
		return nil, err
	}
	result, err := p.ComputeKPIs(ctx, funnel)
	if err != nil {
		return nil, err
	}

	p.log.Info("pipeline: complete",
		zap.Int("topics", len(result.Topics)),
		zap.Int("guests", len(result.Guests)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return result, nil
}

// LoadDataset returns the dataset cached under key.
func (p *Pipeline) LoadDataset(ctx context.Context, key string) (*model.Dataset, error) {
	ds, ok, err := p.cachedDataset(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, eris.Errorf("pipeline: no cached artifact %s", key)
	}
	return ds, nil
}

// cachedDataset reads key unless Force is set.
func (p *Pipeline) cachedDataset(ctx context.Context, key string) (*model.Dataset, bool, error) {
	var ds model.Dataset
	ok, err := store.GetJSON(ctx, p.store, key, &ds)
	if err != nil {
		return nil, false, eris.Wrapf(err, "pipeline: load %s", key)
	}
	return &ds, ok, nil
}

func (p *Pipeline) skip(ctx context.Context, key string) (*model.Dataset, bool, error) {
	if p.opts.Force {
		return nil, false, nil
	}
	ds, ok, err := p.cachedDataset(ctx, key)
	if ok {
		p.log.Info("pipeline: using cached stage", zap.String("key", key), zap.Int("rows", ds.Len()))
	}
	return ds, ok, err
}

func (p *Pipeline) save(ctx context.Context, key string, v any) error {
	if err := store.PutJSON(ctx, p.store, key, v); err != nil {
		return eris.Wrapf(err, "pipeline: save %s", key)
	}
	return nil
}

// logUsage reports the calls, tokens and estimated spend of one stage.
func (p *Pipeline) logUsage(stage, modelName string, u extract.Usage, elapsed time.Duration) {
	p.log.Info("pipeline: stage complete",
		zap.String("stage", stage),
		zap.String("model", modelName),
		zap.Int("calls", u.Calls),
		zap.Int("failures", u.Failures),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Float64("est_cost_usd", p.costCalc.Tokens(modelName, u.InputTokens, u.OutputTokens)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
}
