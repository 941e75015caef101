package extract

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Completion), args.Error(1)
}

func (m *mockCompleter) Model() string {
	return "test-model"
}

func answer(text string) *Completion {
	return &Completion{Text: text, Model: "test-model", InputTokens: 100, OutputTokens: 10}
}
