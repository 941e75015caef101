package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/podcast-kpi/internal/model"
)

// fakeLLM answers guest prompts with one guest and topic prompts with
// "health", in the OpenAI chat completion shape.
func fakeLLM(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		answer := "other"
		for _, m := range req.Messages {
			switch {
			case strings.Contains(m.Content, "Description:"):
				answer = `["Jane Doe"]`
			case strings.Contains(m.Content, "Categorize"):
				answer = "health"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "openai/gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": answer},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 50, "completion_tokens": 5, "total_tokens": 55},
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func runCommand(t *testing.T, output string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().Bool("force", false, "")
	cmd.Flags().String("format", formatJSON, "")
	cmd.Flags().String("output", output, "")
	addInputFlags(cmd)
	addKPIFlags(cmd)
	addTableFlag(cmd)
	cmd.SetContext(context.Background())
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})
	return cmd
}

func TestRunAll_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "videos.csv")
	csv := "video_id,video_title,video_description,video_published_at,view_count,video_like_count,comment_count\n" +
		"v1,Sleep better,Jane Doe joins us,2024-01-01T00:00:00Z,1000,100,10\n" +
		"v2,Eat better,Jane Doe is back,2024-01-05T00:00:00Z,500,50,5\n"
	require.NoError(t, os.WriteFile(input, []byte(csv), 0o644))

	var calls atomic.Int32
	ts := fakeLLM(t, &calls)

	c := testConfig()
	c.OpenRouter.BaseURL = ts.URL
	c.Input.Path = input
	withConfig(t, c)

	out := filepath.Join(dir, "kpis.json")
	require.NoError(t, runAll(runCommand(t, out), nil))

	// Two videos, one guest call and one topic call each.
	assert.EqualValues(t, 4, calls.Load())

	var topics []model.TopicStat
	data, err := os.ReadFile(filepath.Join(dir, "kpis_topics.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &topics))
	require.Len(t, topics, 1)
	assert.Equal(t, model.TopicHealth, topics[0].Topic)
	assert.Equal(t, 2, topics[0].NVideos)
	assert.Equal(t, 1, topics[0].Rank)

	var guests []model.GuestStat
	data, err = os.ReadFile(filepath.Join(dir, "kpis_guests.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &guests))
	require.Len(t, guests, 1)
	assert.Equal(t, "Jane Doe", guests[0].Guest)
	assert.Equal(t, 2, guests[0].Appearances)
}

func TestRunAll_MissingProviderKey(t *testing.T) {
	c := testConfig()
	c.OpenRouter.Key = ""
	c.Input.Path = "videos.csv"
	withConfig(t, c)

	err := runAll(runCommand(t, ""), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: invalid openrouter")
}

func TestRunAll_MissingInput(t *testing.T) {
	c := testConfig()
	c.Input.Path = filepath.Join(t.TempDir(), "missing.csv")
	withConfig(t, c)

	err := runAll(runCommand(t, ""), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load input")
}
