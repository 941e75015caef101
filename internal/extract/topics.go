package extract

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/sells-group/podcast-kpi/internal/model"
)

const topicUserPrompt = `Categorize the following podcast title into ONE broad topic:
%s
Title: "%s"
Return only the category name.`

// TopicOptions tunes the topic classification request.
type TopicOptions struct {
	MaxTokens   int
	Temperature float64
}

// DefaultTopicOptions asks for a single short label. The temperature is
// kept above zero because OpenAI-compatible clients omit a zero value and
// the server default applies instead.
func DefaultTopicOptions() TopicOptions {
	return TopicOptions{MaxTokens: 16, Temperature: 0.01}
}

// TopicClassifier assigns one model.Topic to a video title.
type TopicClassifier struct {
	llm   Completer
	opts  TopicOptions
	usage Usage
}

// NewTopicClassifier returns a classifier backed by llm.
func NewTopicClassifier(llm Completer, opts TopicOptions) *TopicClassifier {
	return &TopicClassifier{llm: llm, opts: opts}
}

// Usage returns the calls and tokens spent so far.
func (t *TopicClassifier) Usage() Usage { return t.usage }

// Model returns the model name used for classification.
func (t *TopicClassifier) Model() string { return t.llm.Model() }

// Classify returns the topic of title. Blank titles, failed calls and
// answers naming no known topic all yield model.TopicOther.
func (t *TopicClassifier) Classify(ctx context.Context, title string) model.Topic {
	if strings.TrimSpace(title) == "" {
		return model.TopicOther
	}

	c, err := t.llm.Complete(ctx, Prompt{
		User:        fmt.Sprintf(topicUserPrompt, topicMenu(), title),
		MaxTokens:   t.opts.MaxTokens,
		Temperature: t.opts.Temperature,
	})
	t.usage.record(c, err)
	if err != nil {
		zap.L().Warn("extract: topic classification error",
			zap.String("model", t.llm.Model()),
			zap.Error(&CallError{Op: "topic", Err: err}),
		)
		return model.TopicOther
	}

	topic, err := parseTopic(c.Text)
	if err != nil {
		zap.L().Debug("extract: topic response unusable", zap.Error(err))
	}
	return topic
}

func topicMenu() string {
	var b strings.Builder
	for _, tp := range model.AllTopics {
		b.WriteString("- ")
		b.WriteString(string(tp))
		b.WriteString("\n")
	}
	return b.String()
}

// topicPhrase is a label, or one half of a two-part label, in word form.
type topicPhrase struct {
	words string
	topic model.Topic
}

// topicPhrases lists every phrase longest first, so that "mental health"
// is tried before "health".
var topicPhrases = func() []topicPhrase {
	var out []topicPhrase
	for _, tp := range model.AllTopics {
		if tp == model.TopicOther {
			continue
		}
		out = append(out, topicPhrase{words(string(tp)), tp})
		if parts := strings.Split(string(tp), "/"); len(parts) > 1 {
			for _, part := range parts {
				out = append(out, topicPhrase{words(part), tp})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b topicPhrase) int {
		return cmp.Compare(len(b.words), len(a.words))
	})
	return out
}()

// parseTopic matches the whole answer first, then its first line without
// a leading "category:" label, then the longest topic phrase named anywhere
// in it, and finally a near-miss spelling of the first line.
func parseTopic(text string) (model.Topic, error) {
	answer := strings.ToLower(stripCodeFence(strings.TrimSpace(text)))
	if tp, ok := model.ParseTopic(answer); ok {
		return tp, nil
	}

	line, _, _ := strings.Cut(answer, "\n")
	if _, after, found := strings.Cut(line, ":"); found {
		line = after
	}
	line = strings.TrimLeft(strings.TrimSpace(line), "-* ")
	if tp, ok := model.ParseTopic(line); ok {
		return tp, nil
	}

	padded := " " + words(answer) + " "
	for _, p := range topicPhrases {
		if strings.Contains(padded, " "+p.words+" ") {
			return p.topic, nil
		}
	}

	if tp, ok := closestTopic(line); ok {
		return tp, nil
	}
	return model.TopicOther, &MalformedResponseError{Op: "topic", Raw: text}
}

// closestTopic tolerates misspellings: one edit per eight runes of the
// phrase, so short labels must match exactly.
func closestTopic(line string) (model.Topic, bool) {
	got := strings.ReplaceAll(words(line), " ", "")
	if got == "" {
		return model.TopicOther, false
	}
	best, bestDist := model.TopicOther, -1
	for _, p := range topicPhrases {
		want := strings.ReplaceAll(p.words, " ", "")
		d := levenshtein.ComputeDistance(got, want)
		if d*8 > len([]rune(want)) {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = p.topic, d
		}
	}
	return best, bestDist >= 0
}

// words lower-cases s and collapses every run of non-alphanumeric runes to
// a single space.
func words(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
