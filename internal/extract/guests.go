package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const guestSystemPrompt = `You are a podcast metadata assistant.`

const guestUserPrompt = `Task:
- Read the YouTube video description carefully.
- Identify ONLY the people who actually appear as guests in the episode.
- Ignore names mentioned as examples, references or comparisons.
- Keep professional titles (Dr, Prof, etc).
- Respond with a JSON array of names, e.g. ["Jane Doe", "Dr John Roe"].
- Respond with [] if there is no clear guest.

Description:
"""%s"""`

// GuestOptions tunes the guest extraction request.
type GuestOptions struct {
	MaxTokens   int
	Temperature float64
}

// DefaultGuestOptions keeps answers short and close to deterministic.
func DefaultGuestOptions() GuestOptions {
	return GuestOptions{MaxTokens: 200, Temperature: 0.1}
}

// GuestExtractor pulls guest names out of free-text video descriptions.
type GuestExtractor struct {
	llm   Completer
	opts  GuestOptions
	usage Usage
}

// NewGuestExtractor returns an extractor backed by llm.
func NewGuestExtractor(llm Completer, opts GuestOptions) *GuestExtractor {
	return &GuestExtractor{llm: llm, opts: opts}
}

// Usage returns the calls and tokens spent so far.
func (g *GuestExtractor) Usage() Usage { return g.usage }

// Model returns the model name used for extraction.
func (g *GuestExtractor) Model() string { return g.llm.Model() }

// Extract returns the distinct guest names of a description, in the order
// the model listed them. Blank input, failed calls and unparseable answers
// all yield an empty list.
func (g *GuestExtractor) Extract(ctx context.Context, description string) []string {
	if strings.TrimSpace(description) == "" {
		return []string{}
	}

	c, err := g.llm.Complete(ctx, Prompt{
		System:      guestSystemPrompt,
		User:        fmt.Sprintf(guestUserPrompt, description),
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	})
	g.usage.record(c, err)
	if err != nil {
		zap.L().Warn("extract: guest extraction error",
			zap.String("model", g.llm.Model()),
			zap.Error(&CallError{Op: "guest", Err: err}),
		)
		return []string{}
	}

	names, err := parseGuestList(c.Text)
	if err != nil {
		zap.L().Debug("extract: guest response unusable", zap.Error(err))
		return []string{}
	}
	return names
}

var (
	bracketPattern = regexp.MustCompile(`(?s)\[(.*?)\]`)
	fencePattern   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// parseGuestList reads a JSON array (or a bare JSON string) of names. When
// the answer is not valid JSON, the first bracketed span is split on commas.
func parseGuestList(text string) ([]string, error) {
	cleaned := stripCodeFence(strings.TrimSpace(text))

	var raw any
	if err := json.Unmarshal([]byte(cleaned), &raw); err == nil {
		switch v := raw.(type) {
		case string:
			return dedupeNames([]string{v}), nil
		case []any:
			names := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					names = append(names, s)
				}
			}
			return dedupeNames(names), nil
		}
	}

	m := bracketPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return nil, &MalformedResponseError{Op: "guest", Raw: text}
	}
	parts := strings.Split(m[1], ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"'`)
	}
	return dedupeNames(parts), nil
}

func stripCodeFence(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// dedupeNames trims names, drops blanks and keeps the first occurrence.
func dedupeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
