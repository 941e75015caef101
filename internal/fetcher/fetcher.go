// Package fetcher loads raw video exports (CSV, XLSX or JSON) into a
// model.Dataset.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/podcast-kpi/internal/model"
)

// Load reads the export at path, choosing the parser by file extension.
func Load(ctx context.Context, path string) (*model.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: open csv")
		}
		defer f.Close() //nolint:errcheck
		return ReadVideosCSV(ctx, f)
	case ".xlsx":
		return ReadVideosXLSX(ctx, path, XLSXOptions{})
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: open json")
		}
		defer f.Close() //nolint:errcheck
		return ReadVideosJSON(ctx, f)
	default:
		return nil, eris.Errorf("fetcher: unsupported input format %q", filepath.Ext(path))
	}
}

// rawVideo is one export row before type conversion.
type rawVideo struct {
	VideoID            string `csv:"video_id"`
	Title              string `csv:"video_title"`
	Description        string `csv:"video_description"`
	PublishedAt        string `csv:"video_published_at"`
	DaysSincePublished string `csv:"days_since_published"`
	ViewCount          string `csv:"view_count"`
	LikeCount          string `csv:"video_like_count"`
	CommentCount       string `csv:"comment_count"`
	Topic              string `csv:"topic_category"`
	Guests             string `csv:"guest_list"`
}

// decodeRecords runs the csvutil decoder over any record source and
// returns the dataset. The header row names the columns present.
func decodeRecords(ctx context.Context, r csvutil.Reader) (*model.Dataset, error) {
	dec, err := csvutil.NewDecoder(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewDataset(nil, nil), nil
		}
		return nil, eris.Wrap(err, "fetcher: read header")
	}

	columns := dec.Header()

	var videos []model.Video
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "fetcher: context cancelled")
		}
		var raw rawVideo
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "fetcher: decode row %d", line)
		}
		v, err := raw.toVideo()
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: row %d", line)
		}
		videos = append(videos, v)
	}
	return model.NewDataset(columns, videos), nil
}

func (r rawVideo) toVideo() (model.Video, error) {
	v := model.Video{
		VideoID:     strings.TrimSpace(r.VideoID),
		Title:       r.Title,
		Description: r.Description,
		PublishedAt: parseTimestamp(r.PublishedAt),
		Guests:      parseGuestCell(r.Guests),
	}
	if r.Topic != "" {
		v.Topic = model.Topic(strings.ToLower(strings.TrimSpace(r.Topic)))
	}

	var err error
	if v.ViewCount, err = parseCount(model.ColViewCount, r.ViewCount); err != nil {
		return v, err
	}
	if v.LikeCount, err = parseCount(model.ColLikeCount, r.LikeCount); err != nil {
		return v, err
	}
	if v.CommentCount, err = parseCount(model.ColCommentCount, r.CommentCount); err != nil {
		return v, err
	}
	if s := strings.TrimSpace(r.DaysSincePublished); s != "" {
		n, err := parseCount(model.ColDaysSincePublished, s)
		if err != nil {
			return v, err
		}
		days := int(n)
		v.DaysSincePublished = &days
	}
	return v, nil
}

// parseCount reads an engagement count. Blank cells are zero; thousands
// separators and a fractional part (as written by spreadsheet tools) are
// accepted.
func parseCount(col, s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, eris.Errorf("fetcher: invalid %s %q", col, s)
	}
	return int64(math.Round(f)), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp returns the UTC instant of s, or nil when s is blank or in
// no known layout. Timestamps without a zone are taken as UTC.
func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// parseGuestCell reads a guest_list cell: a JSON array, a bracketed list
// with single-quoted names, or names separated by semicolons.
func parseGuestCell(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	var raw []any
	if err := json.Unmarshal([]byte(s), &raw); err == nil {
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if name, ok := item.(string); ok && strings.TrimSpace(name) != "" {
				out = append(out, strings.TrimSpace(name))
			}
		}
		return out
	}

	sep := ";"
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
		sep = ","
	}
	out := []string{}
	for _, part := range strings.Split(s, sep) {
		name := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"'`))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
