package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/podcast-kpi/internal/model"
)

// PrepareTopFunnel joins guests and topics into one row per video. Each
// video keeps its first guest row and the first topic seen for it; videos
// without a topic fall back to model.TopicOther.
func (p *Pipeline) PrepareTopFunnel(ctx context.Context, guests, topics *model.Dataset) (*model.Dataset, error) {
	if cached, ok, err := p.skip(ctx, KeyTopFunnel); err != nil || ok {
		return cached, err
	}
	out, err := MergeTopFunnel(guests, topics)
	if err != nil {
		return nil, err
	}
	p.log.Info("pipeline: top funnel ready", zap.Int("videos", out.Len()))
	if err := p.save(ctx, KeyTopFunnel, out); err != nil {
		return nil, err
	}
	return out, nil
}

// MergeTopFunnel is the pure join behind PrepareTopFunnel.
func MergeTopFunnel(guests, topics *model.Dataset) (*model.Dataset, error) {
	if err := requireColumns(guests, model.ColVideoID, model.ColGuestList); err != nil {
		return nil, eris.Wrap(err, "pipeline: merge guests")
	}
	if err := requireColumns(topics, model.ColVideoID, model.ColTopicCategory); err != nil {
		return nil, eris.Wrap(err, "pipeline: merge topics")
	}

	topicOf := make(map[string]model.Topic, topics.Len())
	for _, v := range topics.Videos {
		if _, ok := topicOf[v.VideoID]; !ok {
			topicOf[v.VideoID] = v.Topic
		}
	}

	out := model.NewDataset(guests.Columns, nil)
	for _, v := range guests.Clone().UniqueByVideo() {
		v.Topic = topicOf[v.VideoID].OrOther()
		out.Videos = append(out.Videos, v)
	}
	out.AddColumn(model.ColTopicCategory)
	return out, nil
}

// Head keeps the rows of the first n distinct videos. n <= 0 keeps all.
func Head(ds *model.Dataset, n int) *model.Dataset {
	if n <= 0 {
		return ds
	}
	keep := make(map[string]bool, n)
	out := model.NewDataset(ds.Columns, nil)
	for _, v := range ds.Videos {
		if !keep[v.VideoID] {
			if len(keep) == n {
				continue
			}
			keep[v.VideoID] = true
		}
		out.Videos = append(out.Videos, v)
	}
	return out
}
