package model

// TopicStat is one ranked row of the topic KPI table.
type TopicStat struct {
	Topic            Topic   `json:"topic_category" yaml:"topic_category" csv:"topic_category"`
	ViewCount        float64 `json:"view_count" yaml:"view_count" csv:"view_count"`
	LikeCount        float64 `json:"video_like_count" yaml:"video_like_count" csv:"video_like_count"`
	CommentCount     float64 `json:"comment_count" yaml:"comment_count" csv:"comment_count"`
	NVideos          int     `json:"n_videos" yaml:"n_videos" csv:"n_videos"`
	ViewCountNorm    float64 `json:"view_count_norm" yaml:"view_count_norm" csv:"view_count_norm"`
	LikeCountNorm    float64 `json:"video_like_count_norm" yaml:"video_like_count_norm" csv:"video_like_count_norm"`
	CommentCountNorm float64 `json:"comment_count_norm" yaml:"comment_count_norm" csv:"comment_count_norm"`
	WeightedScore    float64 `json:"weighted_score" yaml:"weighted_score" csv:"weighted_score"`
	Rank             int     `json:"rank" yaml:"rank" csv:"rank"`
}

// GuestStat is one ranked row of the guest KPI table.
type GuestStat struct {
	Guest                string  `json:"guest" yaml:"guest" csv:"guest"`
	ViewsPerGuest        float64 `json:"views_per_guest" yaml:"views_per_guest" csv:"views_per_guest"`
	LikesPerGuest        float64 `json:"likes_per_guest" yaml:"likes_per_guest" csv:"likes_per_guest"`
	CommentsPerGuest     float64 `json:"comments_per_guest" yaml:"comments_per_guest" csv:"comments_per_guest"`
	Appearances          int     `json:"appearances" yaml:"appearances" csv:"appearances"`
	ViewsPerGuestNorm    float64 `json:"views_per_guest_norm" yaml:"views_per_guest_norm" csv:"views_per_guest_norm"`
	LikesPerGuestNorm    float64 `json:"likes_per_guest_norm" yaml:"likes_per_guest_norm" csv:"likes_per_guest_norm"`
	CommentsPerGuestNorm float64 `json:"comments_per_guest_norm" yaml:"comments_per_guest_norm" csv:"comments_per_guest_norm"`
	WeightedScore        float64 `json:"weighted_score" yaml:"weighted_score" csv:"weighted_score"`
	Rank                 int     `json:"rank" yaml:"rank" csv:"rank"`
}

// KPIResult bundles both ranked tables of one KPI run.
type KPIResult struct {
	Topics []TopicStat `json:"topics"`
	Guests []GuestStat `json:"guests"`
}
