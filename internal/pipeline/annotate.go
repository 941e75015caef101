package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/podcast-kpi/internal/extract"
	"github.com/sells-group/podcast-kpi/internal/kpi"
	"github.com/sells-group/podcast-kpi/internal/model"
)

// AssignGuests extracts guests once per distinct video and writes the list
// onto every row of that video.
func (p *Pipeline) AssignGuests(ctx context.Context, raw *model.Dataset) (*model.Dataset, error) {
	if cached, ok, err := p.skip(ctx, KeyGuests); err != nil || ok {
		return cached, err
	}
	if p.guests == nil {
		return nil, eris.New("pipeline: no guest extractor configured")
	}
	if err := requireColumns(raw, model.ColVideoID, model.ColVideoDescription); err != nil {
		return nil, eris.Wrap(err, "pipeline: assign guests")
	}

	start := time.Now()
	before := p.guests.Usage()
	unique := raw.UniqueByVideo()
	byVideo := make(map[string][]string, len(unique))

	err := p.forEach(ctx, "guests", len(unique), func(i int) {
		v := unique[i]
		byVideo[v.VideoID] = p.guests.Extract(ctx, v.Description)
	})
	if err != nil {
		return nil, err
	}

	out := raw.Clone()
	for i := range out.Videos {
		out.Videos[i].Guests = byVideo[out.Videos[i].VideoID]
	}
	out.AddColumn(model.ColGuestList)

	p.logUsage("guests", p.guests.Model(), usageSince(before, p.guests.Usage()), time.Since(start))
	if err := p.save(ctx, KeyGuests, out); err != nil {
		return nil, err
	}
	return out, nil
}

type titleKey struct {
	videoID, title string
}

// AssignTopics classifies each distinct (video, title) pair and writes the
// label onto the matching rows.
func (p *Pipeline) AssignTopics(ctx context.Context, ds *model.Dataset) (*model.Dataset, error) {
	if cached, ok, err := p.skip(ctx, KeyTopics); err != nil || ok {
		return cached, err
	}
	if p.topics == nil {
		return nil, eris.New("pipeline: no topic classifier configured")
	}
	if err := requireColumns(ds, model.ColVideoID, model.ColVideoTitle); err != nil {
		return nil, eris.Wrap(err, "pipeline: assign topics")
	}

	start := time.Now()
	before := p.topics.Usage()

	var keys []titleKey
	seen := make(map[titleKey]bool)
	for _, v := range ds.Videos {
		k := titleKey{v.VideoID, v.Title}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	labels := make(map[titleKey]model.Topic, len(keys))
	err := p.forEach(ctx, "topics", len(keys), func(i int) {
		labels[keys[i]] = p.topics.Classify(ctx, keys[i].title)
	})
	if err != nil {
		return nil, err
	}

	out := ds.Clone()
	for i, v := range out.Videos {
		out.Videos[i].Topic = labels[titleKey{v.VideoID, v.Title}].OrOther()
	}
	out.AddColumn(model.ColTopicCategory)

	p.logUsage("topics", p.topics.Model(), usageSince(before, p.topics.Usage()), time.Since(start))
	if err := p.save(ctx, KeyTopics, out); err != nil {
		return nil, err
	}
	return out, nil
}

// forEach calls fn for 0..n-1 in order, paced by the configured request
// rate. It stops early when ctx is cancelled.
func (p *Pipeline) forEach(ctx context.Context, desc string, n int, fn func(i int)) error {
	var limiter *rate.Limiter
	if p.opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.opts.RequestsPerSecond), 1)
	}
	bar := newProgress(p.opts.Progress, n, desc, p.opts.ShowProgress)
	defer bar.Finish() //nolint:errcheck

	for i := 0; i < n; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return eris.Wrapf(err, "pipeline: %s rate limit", desc)
			}
		}
		if err := ctx.Err(); err != nil {
			return eris.Wrapf(err, "pipeline: %s cancelled", desc)
		}
		fn(i)
		_ = bar.Add(1)
	}
	p.log.Debug("pipeline: annotated", zap.String("stage", desc), zap.Int("items", n))
	return nil
}

func usageSince(before, after extract.Usage) extract.Usage {
	return extract.Usage{
		Calls:        after.Calls - before.Calls,
		Failures:     after.Failures - before.Failures,
		InputTokens:  after.InputTokens - before.InputTokens,
		OutputTokens: after.OutputTokens - before.OutputTokens,
	}
}

func requireColumns(ds *model.Dataset, cols ...string) error {
	for _, c := range cols {
		if !ds.Has(c) {
			return &kpi.MissingColumnError{Column: c}
		}
	}
	return nil
}
