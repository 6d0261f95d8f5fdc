package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/scrollsense/scrollsense/pkg/anthropic"
)

// --- Anthropic Mock ---

type mockModelClient struct {
	mock.Mock
}

func (m *mockModelClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}
