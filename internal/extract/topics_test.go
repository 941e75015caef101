package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/podcast-kpi/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   model.Topic
	}{
		{"exact", "finance", model.TopicFinance},
		{"case and space", "  Health \n", model.TopicHealth},
		{"full label", "Mental Health / Psychology", model.TopicMentalHealth},
		{"half label", "psychology", model.TopicMentalHealth},
		{"prefixed", "Category: technology", model.TopicTechnology},
		{"sentence", "This title is about entrepreneurship / business topics.", model.TopicEntrepreneurship},
		{"longest phrase wins", "The category is mental health.", model.TopicMentalHealth},
		{"personal development in a sentence", "I would say personal development", model.TopicProductivity},
		{"word boundary", "healthy cooking", model.TopicOther},
		{"misspelled", "Entrepeneurship", model.TopicEntrepreneurship},
		{"unknown", "cooking", model.TopicOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockCompleter{}
			llm.On("Complete", mock.Anything, mock.MatchedBy(func(p Prompt) bool {
				return p.Temperature > 0 && p.MaxTokens == 16
			})).Return(answer(tt.answer), nil)

			c := NewTopicClassifier(llm, DefaultTopicOptions())
			assert.Equal(t, tt.want, c.Classify(context.Background(), "Some episode title"))
		})
	}
}

func TestClassify_PromptListsEveryTopic(t *testing.T) {
	var got Prompt
	llm := &mockCompleter{}
	llm.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(Prompt) }).
		Return(answer("other"), nil)

	c := NewTopicClassifier(llm, DefaultTopicOptions())
	c.Classify(context.Background(), "How to Sleep Better")

	require.NotEmpty(t, got.User)
	assert.Contains(t, got.User, `Title: "How to Sleep Better"`)
	for _, tp := range model.AllTopics {
		assert.Contains(t, got.User, "- "+string(tp))
	}
}

func TestClassify_BlankTitle(t *testing.T) {
	llm := &mockCompleter{}
	c := NewTopicClassifier(llm, DefaultTopicOptions())

	assert.Equal(t, model.TopicOther, c.Classify(context.Background(), ""))
	llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestClassify_CallFailure(t *testing.T) {
	llm := &mockCompleter{}
	llm.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("ollama unreachable"))

	c := NewTopicClassifier(llm, DefaultTopicOptions())
	assert.Equal(t, model.TopicOther, c.Classify(context.Background(), "Money talks"))
	assert.Equal(t, Usage{Calls: 1, Failures: 1}, c.Usage())
}

func TestDefaultTopicOptions_NonZeroTemperature(t *testing.T) {
	assert.InDelta(t, 0.01, DefaultTopicOptions().Temperature, 1e-9)
}

func TestParseTopic_Malformed(t *testing.T) {
	tp, err := parseTopic("¯\\_(ツ)_/¯")
	assert.Equal(t, model.TopicOther, tp)

	var mre *MalformedResponseError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "topic", mre.Op)
}
