package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vlocr/internal/inference"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Recognize(ctx context.Context, mime string, data []byte, prompt string, maxTokens int) (string, error) {
	args := m.Called(ctx, mime, data, prompt, maxTokens)
	return args.String(0), args.Error(1)
}

func (m *MockEngine) Info() inference.Info {
	args := m.Called()
	return args.Get(0).(inference.Info)
}
