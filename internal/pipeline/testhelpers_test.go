package pipeline

import (
	"io"
	"testing"
	"time"

	"github.com/sells-group/podcast-kpi/internal/kpi"
	"github.com/sells-group/podcast-kpi/internal/model"
	"github.com/sells-group/podcast-kpi/internal/store"
)

var rawColumns = []string{
	model.ColVideoID,
	model.ColVideoTitle,
	model.ColVideoDescription,
	model.ColVideoPublishedAt,
	model.ColViewCount,
	model.ColLikeCount,
	model.ColCommentCount,
}

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// rawDataset has three videos; v1 appears on two rows.
func rawDataset() *model.Dataset {
	return model.NewDataset(rawColumns, []model.Video{
		{VideoID: "v1", Title: "Sleep Better", Description: "Dr. Andrew Huberman on sleep", PublishedAt: ts("2024-01-01T00:00:00Z"), ViewCount: 1000, LikeCount: 100, CommentCount: 10},
		{VideoID: "v1", Title: "Sleep Better", Description: "Dr. Andrew Huberman on sleep", PublishedAt: ts("2024-01-01T00:00:00Z"), ViewCount: 1000, LikeCount: 100, CommentCount: 10},
		{VideoID: "v2", Title: "Money Habits", Description: "andrew  huberman and Jane Doe on money", PublishedAt: ts("2024-01-09T00:00:00Z"), ViewCount: 400, LikeCount: 40, CommentCount: 4},
		{VideoID: "v3", Title: "Solo Rant", Description: "", PublishedAt: nil, ViewCount: 50, LikeCount: 5, CommentCount: 1},
	})
}

func newTestPipeline(t *testing.T, st store.Store, g GuestExtractor, tc TopicClassifier, force bool) *Pipeline {
	t.Helper()
	return New(st, g, tc, nil, Options{
		Force:    force,
		Progress: io.Discard,
		KPI: kpi.GuestOptions{
			Now: func() time.Time { return testNow },
		},
	})
}
