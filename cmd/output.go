package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/podcast-kpi/internal/model"
	"github.com/sells-group/podcast-kpi/internal/store"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// videoRow is the flat export form of a model.Video.
type videoRow struct {
	VideoID            string `csv:"video_id" json:"video_id" yaml:"video_id"`
	Title              string `csv:"video_title" json:"video_title" yaml:"video_title"`
	PublishedAt        string `csv:"video_published_at" json:"video_published_at,omitempty" yaml:"video_published_at,omitempty"`
	DaysSincePublished string `csv:"days_since_published" json:"days_since_published,omitempty" yaml:"days_since_published,omitempty"`
	ViewCount          int64  `csv:"view_count" json:"view_count" yaml:"view_count"`
	LikeCount          int64  `csv:"video_like_count" json:"video_like_count" yaml:"video_like_count"`
	CommentCount       int64  `csv:"comment_count" json:"comment_count" yaml:"comment_count"`
	Topic              string `csv:"topic_category" json:"topic_category,omitempty" yaml:"topic_category,omitempty"`
	Guests             string `csv:"guest_list" json:"guest_list" yaml:"guest_list"`
}

func toVideoRows(ds *model.Dataset) []videoRow {
	rows := make([]videoRow, len(ds.Videos))
	for i, v := range ds.Videos {
		r := videoRow{
			VideoID:      v.VideoID,
			Title:        v.Title,
			ViewCount:    v.ViewCount,
			LikeCount:    v.LikeCount,
			CommentCount: v.CommentCount,
			Topic:        string(v.Topic),
			Guests:       strings.Join(v.Guests, "; "),
		}
		if v.PublishedAt != nil {
			r.PublishedAt = v.PublishedAt.UTC().Format(time.RFC3339)
		}
		if v.DaysSincePublished != nil {
			r.DaysSincePublished = strconv.Itoa(*v.DaysSincePublished)
		}
		rows[i] = r
	}
	return rows
}

// outputPath returns --output with suffix inserted before the extension,
// so that one command can write several tables ("kpis.csv" becomes
// "kpis_topics.csv"). An empty suffix returns --output unchanged.
func outputPath(cmd *cobra.Command, suffix string) string {
	path, _ := cmd.Flags().GetString("output")
	if path == "" || suffix == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + suffix + ext
}

// openOutput returns the file at path, or the command's stdout when path
// is empty.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output %s", path)
	}
	return f, f.Close, nil
}

// tableSpec lays out the table format. The first left columns are
// left-aligned, the rest right-aligned.
type tableSpec struct {
	title   string
	headers []string
	left    int
}

// emit writes rows in the --format chosen on cmd. spec and cells drive the
// table format; the other formats serialize rows directly.
func emit[T any](cmd *cobra.Command, path string, spec tableSpec, rows []T, cells func(T) []string) error {
	format, _ := cmd.Flags().GetString("format")
	w, closeFn, err := openOutput(cmd, path)
	if err != nil {
		return err
	}
	if err := writeRows(w, format, spec, rows, cells); err != nil {
		_ = closeFn()
		return err
	}
	return eris.Wrap(closeFn(), "close output")
}

func writeRows[T any](w io.Writer, format string, spec tableSpec, rows []T, cells func(T) []string) error {
	switch format {
	case formatTable:
		body := make([][]string, len(rows))
		for i, r := range rows {
			body[i] = cells(r)
		}
		_, err := fmt.Fprintln(w, renderTable(spec, body))
		return eris.Wrap(err, "write table")
	case formatCSV:
		if len(rows) == 0 {
			return nil
		}
		data, err := csvutil.Marshal(rows)
		if err != nil {
			return eris.Wrap(err, "encode csv")
		}
		_, err = w.Write(data)
		return eris.Wrap(err, "write csv")
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(rows), "encode json")
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return eris.Errorf("unknown format %q (want table, csv, json or yaml)", format)
	}
}

func renderTable(spec tableSpec, rows [][]string) string {
	headers := spec.headers
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if spec.title != "" {
		tw.SetTitle(spec.title)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignRight
		if i < spec.left {
			align = text.AlignLeft
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func writeTopicStats(cmd *cobra.Command, path string, stats []model.TopicStat) error {
	spec := tableSpec{
		title:   "Topics",
		headers: []string{"Rank", "Topic", "Videos", "Avg views", "Avg likes", "Avg comments", "Score"},
		left:    2,
	}
	return emit(cmd, path, spec, stats, func(s model.TopicStat) []string {
		return []string{
			strconv.Itoa(s.Rank), string(s.Topic), strconv.Itoa(s.NVideos),
			f2(s.ViewCount), f2(s.LikeCount), f2(s.CommentCount), f2(s.WeightedScore),
		}
	})
}

func writeGuestStats(cmd *cobra.Command, path string, stats []model.GuestStat) error {
	spec := tableSpec{
		title:   "Guests",
		headers: []string{"Rank", "Guest", "Appearances", "Views/guest", "Likes/guest", "Comments/guest", "Score"},
		left:    2,
	}
	return emit(cmd, path, spec, stats, func(s model.GuestStat) []string {
		return []string{
			strconv.Itoa(s.Rank), s.Guest, strconv.Itoa(s.Appearances),
			f2(s.ViewsPerGuest), f2(s.LikesPerGuest), f2(s.CommentsPerGuest), f2(s.WeightedScore),
		}
	})
}

func writeVideos(cmd *cobra.Command, title string, ds *model.Dataset) error {
	spec := tableSpec{
		title:   title,
		headers: []string{"Video", "Title", "Topic", "Guests", "Views", "Likes", "Comments"},
		left:    4,
	}
	return emit(cmd, outputPath(cmd, ""), spec, toVideoRows(ds), func(r videoRow) []string {
		return []string{
			r.VideoID, r.Title, r.Topic, r.Guests,
			strconv.FormatInt(r.ViewCount, 10), strconv.FormatInt(r.LikeCount, 10), strconv.FormatInt(r.CommentCount, 10),
		}
	})
}

func writeEntries(cmd *cobra.Command, entries []store.Entry) error {
	spec := tableSpec{title: "Cache", headers: []string{"Key", "Bytes", "Updated"}, left: 1}
	return emit(cmd, outputPath(cmd, ""), spec, entries, func(e store.Entry) []string {
		return []string{e.Key, strconv.Itoa(e.Size), e.UpdatedAt.UTC().Format(time.RFC3339)}
	})
}
