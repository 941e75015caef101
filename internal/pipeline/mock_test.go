package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/podcast-kpi/internal/extract"
	"github.com/sells-group/podcast-kpi/internal/model"
)

// --- Guest extractor mock ---

type mockGuestExtractor struct {
	mock.Mock
	usage extract.Usage
}

func (m *mockGuestExtractor) Extract(ctx context.Context, description string) []string {
	args := m.Called(ctx, description)
	m.usage.Calls++
	m.usage.InputTokens += 100
	m.usage.OutputTokens += 10
	return args.Get(0).([]string)
}

func (m *mockGuestExtractor) Usage() extract.Usage { return m.usage }

func (m *mockGuestExtractor) Model() string { return "openai/gpt-4o-mini" }

// --- Topic classifier mock ---

type mockTopicClassifier struct {
	mock.Mock
	usage extract.Usage
}

func (m *mockTopicClassifier) Classify(ctx context.Context, title string) model.Topic {
	args := m.Called(ctx, title)
	m.usage.Calls++
	return args.Get(0).(model.Topic)
}

func (m *mockTopicClassifier) Usage() extract.Usage { return m.usage }

func (m *mockTopicClassifier) Model() string { return "llama3.2:3b" }
