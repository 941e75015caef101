package kpi

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/podcast-kpi/internal/model"
)

// UnnamedGuest labels the implicit guest of a video with no named guests.
const UnnamedGuest = "(unnamed)"

var guestColumns = []string{
	model.ColVideoID,
	model.ColVideoTitle,
	model.ColGuestList,
	model.ColTopicCategory,
	model.ColViewCount,
	model.ColLikeCount,
	model.ColCommentCount,
}

// GuestOptions configures ComputeGuestKPIs.
type GuestOptions struct {
	// Threshold is the name-match threshold; <= 0 selects the default.
	Threshold float64
	Weights   Weights
	// IncludeUnnamed ranks guestless videos under UnnamedGuest.
	IncludeUnnamed bool
	// Now is the reference clock for days_since_published. Defaults to time.Now.
	Now func() time.Time
}

func (o GuestOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// GuestVideo is one unique video with its engagement amortized over its
// guests.
type GuestVideo struct {
	VideoID            string
	Title              string
	Topic              model.Topic
	DaysSincePublished *int
	Guests             []string
	ViewCount          int64
	LikeCount          int64
	CommentCount       int64
	GuestCount         int
	ViewsPerGuest      float64
	LikesPerGuest      float64
	CommentsPerGuest   float64
}

// AddDaysSincePublished fills days_since_published from video_published_at
// as whole UTC days before now. Rows without a timestamp keep a nil value.
// It fails with a MissingColumnError when video_published_at is absent.
func AddDaysSincePublished(ds *model.Dataset, now time.Time) error {
	if !ds.Has(model.ColVideoPublishedAt) {
		return &MissingColumnError{Column: model.ColVideoPublishedAt}
	}
	ref := now.UTC()
	for i := range ds.Videos {
		pub := ds.Videos[i].PublishedAt
		if pub == nil {
			ds.Videos[i].DaysSincePublished = nil
			continue
		}
		days := int(math.Floor(ref.Sub(pub.UTC()).Hours() / 24))
		ds.Videos[i].DaysSincePublished = &days
	}
	ds.AddColumn(model.ColDaysSincePublished)
	return nil
}

// GuestVideoRows canonicalizes guest names and returns one row per unique
// video with per-guest metrics. The input dataset is not modified.
func GuestVideoRows(ds *model.Dataset, opts GuestOptions) ([]GuestVideo, NameMap, error) {
	if err := requireColumns(ds, guestColumns...); err != nil {
		return nil, nil, err
	}

	work := ds.Clone()

	lists := make([][]string, len(work.Videos))
	for i, v := range work.Videos {
		lists[i] = v.Guests
	}
	names := StandardizeGuestNames(lists, opts.Threshold)
	for i := range work.Videos {
		work.Videos[i].Guests = names.Apply(work.Videos[i].Guests)
	}

	if !work.Has(model.ColDaysSincePublished) {
		if err := AddDaysSincePublished(work, opts.now()); err != nil {
			return nil, nil, err
		}
	}

	unique := work.UniqueByVideo()
	rows := make([]GuestVideo, len(unique))
	for i, v := range unique {
		n := max(len(v.Guests), 1)
		rows[i] = GuestVideo{
			VideoID:            v.VideoID,
			Title:              v.Title,
			Topic:              v.Topic.OrOther(),
			DaysSincePublished: v.DaysSincePublished,
			Guests:             v.Guests,
			ViewCount:          v.ViewCount,
			LikeCount:          v.LikeCount,
			CommentCount:       v.CommentCount,
			GuestCount:         n,
			ViewsPerGuest:      round2(float64(v.ViewCount) / float64(n)),
			LikesPerGuest:      round2(float64(v.LikeCount) / float64(n)),
			CommentsPerGuest:   round2(float64(v.CommentCount) / float64(n)),
		}
	}
	return rows, names, nil
}

type guestAcc struct {
	views, likes, comments []float64
}

// ComputeGuestKPIs ranks canonical guests by the weighted score of their
// mean per-guest engagement. Co-guests each receive the full per-guest
// share of a video; the share is already divided by the guest count.
func ComputeGuestKPIs(ds *model.Dataset, opts GuestOptions) ([]model.GuestStat, error) {
	rows, names, err := GuestVideoRows(ds, opts)
	if err != nil {
		return nil, err
	}

	var order []string
	groups := make(map[string]*guestAcc)
	add := func(guest string, r GuestVideo) {
		acc, ok := groups[guest]
		if !ok {
			acc = &guestAcc{}
			groups[guest] = acc
			order = append(order, guest)
		}
		acc.views = append(acc.views, r.ViewsPerGuest)
		acc.likes = append(acc.likes, r.LikesPerGuest)
		acc.comments = append(acc.comments, r.CommentsPerGuest)
	}

	var unnamed int
	for _, r := range rows {
		if len(r.Guests) == 0 {
			unnamed++
			if opts.IncludeUnnamed {
				add(UnnamedGuest, r)
			}
			continue
		}
		for _, g := range r.Guests {
			add(g, r)
		}
	}

	stats := make([]model.GuestStat, len(order))
	views := make([]float64, len(order))
	likes := make([]float64, len(order))
	comments := make([]float64, len(order))
	for i, guest := range order {
		acc := groups[guest]
		stats[i] = model.GuestStat{
			Guest:            guest,
			ViewsPerGuest:    mean(acc.views),
			LikesPerGuest:    mean(acc.likes),
			CommentsPerGuest: mean(acc.comments),
			Appearances:      len(acc.views),
		}
		views[i], likes[i], comments[i] = stats[i].ViewsPerGuest, stats[i].LikesPerGuest, stats[i].CommentsPerGuest
	}
	viewsNorm, likesNorm, commentsNorm := MinMax(views), MinMax(likes), MinMax(comments)

	w := opts.Weights
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	scores := make([]float64, len(stats))
	for i := range stats {
		stats[i].ViewsPerGuestNorm = viewsNorm[i]
		stats[i].LikesPerGuestNorm = likesNorm[i]
		stats[i].CommentsPerGuestNorm = commentsNorm[i]
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
		return stats[a].Guest < stats[b].Guest
	})

	zap.L().Debug("kpi: guest stats computed",
		zap.Int("videos", len(rows)),
		zap.Int("distinct_names", len(names)),
		zap.Int("guests", len(stats)),
		zap.Int("guestless_videos", unnamed),
	)
	return stats, nil
}
