package model

import (
	"slices"
	"time"
)

// Column names as they appear in the raw exports and cached artifacts.
const (
	ColVideoID            = "video_id"
	ColVideoTitle         = "video_title"
	ColVideoDescription   = "video_description"
	ColVideoPublishedAt   = "video_published_at"
	ColDaysSincePublished = "days_since_published"
	ColViewCount          = "view_count"
	ColLikeCount          = "video_like_count"
	ColCommentCount       = "comment_count"
	ColTopicCategory      = "topic_category"
	ColGuestList          = "guest_list"
)

// Video is a single video record. Raw exports may carry several rows per
// video (one per appearance); VideoID identifies the video.
type Video struct {
	VideoID            string     `json:"video_id"`
	Title              string     `json:"video_title"`
	Description        string     `json:"video_description"`
	PublishedAt        *time.Time `json:"video_published_at,omitempty"`
	DaysSincePublished *int       `json:"days_since_published,omitempty"`
	ViewCount          int64      `json:"view_count"`
	LikeCount          int64      `json:"video_like_count"`
	CommentCount       int64      `json:"comment_count"`
	Topic              Topic      `json:"topic_category,omitempty"`
	Guests             []string   `json:"guest_list"`
}

// Dataset is a table of video rows together with the columns its source
// actually carried. Aggregations consult Columns, not the zero values of
// the row fields, to decide whether a field is present.
type Dataset struct {
	Columns []string `json:"columns"`
	Videos  []Video  `json:"videos"`
}

// NewDataset returns a dataset with the given columns and rows.
func NewDataset(columns []string, videos []Video) *Dataset {
	return &Dataset{Columns: slices.Clone(columns), Videos: videos}
}

// Has reports whether the dataset carries the named column.
func (d *Dataset) Has(col string) bool {
	return slices.Contains(d.Columns, col)
}

// AddColumn records col as present. Adding an existing column is a no-op.
func (d *Dataset) AddColumn(col string) {
	if !d.Has(col) {
		d.Columns = append(d.Columns, col)
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Videos) }

// Clone returns a deep copy so that stages never mutate their inputs.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Columns: slices.Clone(d.Columns),
		Videos:  make([]Video, len(d.Videos)),
	}
	for i, v := range d.Videos {
		out.Videos[i] = v.clone()
	}
	return out
}

// UniqueByVideo returns the first row of each video, in first-seen order.
func (d *Dataset) UniqueByVideo() []Video {
	seen := make(map[string]bool, len(d.Videos))
	var out []Video
	for _, v := range d.Videos {
		if seen[v.VideoID] {
			continue
		}
		seen[v.VideoID] = true
		out = append(out, v)
	}
	return out
}

func (v Video) clone() Video {
	c := v
	c.Guests = slices.Clone(v.Guests)
	if v.PublishedAt != nil {
		t := *v.PublishedAt
		c.PublishedAt = &t
	}
	if v.DaysSincePublished != nil {
		n := *v.DaysSincePublished
		c.DaysSincePublished = &n
	}
	return c
}
