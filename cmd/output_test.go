package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/podcast-kpi/internal/model"
)

func sampleTopicStats() []model.TopicStat {
	return []model.TopicStat{
		{Topic: model.TopicHealth, ViewCount: 1000, LikeCount: 100, CommentCount: 10, NVideos: 2, WeightedScore: 1, Rank: 1},
		{Topic: model.TopicFinance, ViewCount: 400, LikeCount: 40, CommentCount: 4, NVideos: 1, WeightedScore: 0, Rank: 2},
	}
}

func outputCommand(t *testing.T, format, output string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().String("format", format, "")
	cmd.Flags().String("output", output, "")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestWriteTopicStats_Table(t *testing.T) {
	cmd, buf := outputCommand(t, formatTable, "")
	require.NoError(t, writeTopicStats(cmd, "", sampleTopicStats()))

	out := buf.String()
	assert.Contains(t, out, "Topics")
	assert.Contains(t, out, "health")
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "AVG COMMENTS")
}

func TestWriteTopicStats_CSV(t *testing.T) {
	cmd, buf := outputCommand(t, formatCSV, "")
	require.NoError(t, writeTopicStats(cmd, "", sampleTopicStats()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "topic_category,view_count,video_like_count,comment_count,n_videos"))
	assert.True(t, strings.HasPrefix(lines[1], "health,1000,100,10,2"))
}

func TestWriteGuestStats_JSON(t *testing.T) {
	cmd, buf := outputCommand(t, formatJSON, "")
	stats := []model.GuestStat{{Guest: "Lex Fridman", ViewsPerGuest: 10, Appearances: 3, WeightedScore: 0.5, Rank: 1}}
	require.NoError(t, writeGuestStats(cmd, "", stats))

	var got []model.GuestStat
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, stats, got)
}

func TestWriteGuestStats_YAML(t *testing.T) {
	cmd, buf := outputCommand(t, formatYAML, "")
	stats := []model.GuestStat{{Guest: "Lex Fridman", Appearances: 3, Rank: 1}}
	require.NoError(t, writeGuestStats(cmd, "", stats))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Lex Fridman", got[0]["guest"])
	assert.Equal(t, 3, got[0]["appearances"])
}

func TestWriteRows_UnknownFormat(t *testing.T) {
	cmd, _ := outputCommand(t, "parquet", "")
	err := writeTopicStats(cmd, "", sampleTopicStats())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "parquet"`)
}

func TestWriteRows_EmptyCSV(t *testing.T) {
	cmd, buf := outputCommand(t, formatCSV, "")
	require.NoError(t, writeTopicStats(cmd, "", nil))
	assert.Empty(t, buf.String())
}

func TestWriteVideos_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "funnel.csv")
	cmd, buf := outputCommand(t, formatCSV, path)

	pub := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	days := 9
	ds := model.NewDataset(nil, []model.Video{{
		VideoID: "v1", Title: "Sleep", PublishedAt: &pub, DaysSincePublished: &days,
		ViewCount: 10, Topic: model.TopicHealth, Guests: []string{"A", "B"},
	}})
	require.NoError(t, writeVideos(cmd, "Top funnel", ds))
	assert.Empty(t, buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "v1,Sleep,2024-01-01T00:00:00Z,9,10,0,0,health,A; B")
}

func TestOutputPath(t *testing.T) {
	cmd, _ := outputCommand(t, formatCSV, "out/kpis.csv")
	assert.Equal(t, "out/kpis.csv", outputPath(cmd, ""))
	assert.Equal(t, "out/kpis_topics.csv", outputPath(cmd, "topics"))

	stdout, _ := outputCommand(t, formatCSV, "")
	assert.Equal(t, "", outputPath(stdout, "topics"))
}

func TestWriteKPIs_BothToFiles(t *testing.T) {
	dir := t.TempDir()
	cmd, _ := outputCommand(t, formatJSON, filepath.Join(dir, "kpis.json"))
	addTableFlag(cmd)

	res := &model.KPIResult{Topics: sampleTopicStats(), Guests: []model.GuestStat{{Guest: "A", Rank: 1}}}
	require.NoError(t, writeKPIs(cmd, res))

	assert.FileExists(t, filepath.Join(dir, "kpis_topics.json"))
	assert.FileExists(t, filepath.Join(dir, "kpis_guests.json"))
}

func TestWriteKPIs_UnknownTable(t *testing.T) {
	cmd, _ := outputCommand(t, formatJSON, "")
	addTableFlag(cmd)
	require.NoError(t, cmd.Flags().Set("table", "episodes"))

	err := writeKPIs(cmd, &model.KPIResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown table "episodes"`)
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, renderTable(tableSpec{}, nil))

	out := renderTable(tableSpec{headers: []string{"Key", "Bytes"}, left: 1}, [][]string{{"a"}, {"b", "12"}})
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "12")
}
