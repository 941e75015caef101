package kpi

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/podcast-kpi/internal/model"
)

var topicColumns = []string{
	model.ColVideoID,
	model.ColTopicCategory,
	model.ColViewCount,
	model.ColLikeCount,
	model.ColCommentCount,
	model.ColVideoTitle,
}

type topicAcc struct {
	views, likes, comments []float64
}

// ComputeTopicKPIs aggregates engagement per topic over unique videos,
// normalizes the per-topic means, scores and ranks them. Rows are returned
// by weighted score descending, ties by topic name.
func ComputeTopicKPIs(ds *model.Dataset, w Weights) ([]model.TopicStat, error) {
	if err := requireColumns(ds, topicColumns...); err != nil {
		return nil, err
	}
	if w == (Weights{}) {
		w = DefaultWeights()
	}

	var order []model.Topic
	groups := make(map[model.Topic]*topicAcc)
	for _, v := range ds.UniqueByVideo() {
		topic := v.Topic.OrOther()
		acc, ok := groups[topic]
		if !ok {
			acc = &topicAcc{}
			groups[topic] = acc
			order = append(order, topic)
		}
		acc.views = append(acc.views, float64(v.ViewCount))
		acc.likes = append(acc.likes, float64(v.LikeCount))
		acc.comments = append(acc.comments, float64(v.CommentCount))
	}

	stats := make([]model.TopicStat, len(order))
	for i, topic := range order {
		acc := groups[topic]
		stats[i] = model.TopicStat{
			Topic:        topic,
			ViewCount:    mean(acc.views),
			LikeCount:    mean(acc.likes),
			CommentCount: mean(acc.comments),
			NVideos:      len(acc.views),
		}
	}

	views := make([]float64, len(stats))
	likes := make([]float64, len(stats))
	comments := make([]float64, len(stats))
	for i, s := range stats {
		views[i], likes[i], comments[i] = s.ViewCount, s.LikeCount, s.CommentCount
	}
	viewsNorm, likesNorm, commentsNorm := MinMax(views), MinMax(likes), MinMax(comments)

	scores := make([]float64, len(stats))
	for i := range stats {
		stats[i].ViewCountNorm = viewsNorm[i]
		stats[i].LikeCountNorm = likesNorm[i]
		stats[i].CommentCountNorm = commentsNorm[i]
		stats[i].WeightedScore = w.Score(commentsNorm[i], likesNorm[i], viewsNorm[i])
		scores[i] = stats[i].WeightedScore
	}
	for i, r := range competitionRanks(scores) {
		stats[i].Rank = r
	}

	sort.SliceStable(stats, func(a, b int) bool {
		if stats[a].WeightedScore != stats[b].WeightedScore {
			return stats[a].WeightedScore > stats[b].WeightedScore
		}
		return stats[a].Topic < stats[b].Topic
	})

	zap.L().Debug("kpi: topic stats computed", zap.Int("topics", len(stats)))
	return stats, nil
}
