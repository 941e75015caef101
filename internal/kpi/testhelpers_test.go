package kpi

import (
	"time"

	"github.com/sells-group/podcast-kpi/internal/model"
)

var allColumns = []string{
	model.ColVideoID,
	model.ColVideoTitle,
	model.ColVideoDescription,
	model.ColVideoPublishedAt,
	model.ColViewCount,
	model.ColLikeCount,
	model.ColCommentCount,
	model.ColTopicCategory,
	model.ColGuestList,
}

func newTestDataset(videos ...model.Video) *model.Dataset {
	return model.NewDataset(allColumns, videos)
}

func withoutColumn(ds *model.Dataset, col string) *model.Dataset {
	var cols []string
	for _, c := range ds.Columns {
		if c != col {
			cols = append(cols, c)
		}
	}
	return model.NewDataset(cols, ds.Videos)
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func fixedClock(s string) func() time.Time {
	t := *ts(s)
	return func() time.Time { return t }
}
