package mocks

import (
	"context"
	"encoding/json"

	"vlocr/internal/model"
	"vlocr/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if f, ok := args.Get(0).(func(context.Context, *model.Job) *model.Job); ok {
		return f(ctx, job), args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobRepository) FindByID(ctx context.Context, id string) (*model.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobRepository) UpdateStatus(ctx context.Context, id string, status model.JobStatus, attempts int) error {
	args := m.Called(ctx, id, status, attempts)
	return args.Error(0)
}

func (m *MockJobRepository) Complete(ctx context.Context, id string, result json.RawMessage) error {
	args := m.Called(ctx, id, result)
	return args.Error(0)
}

func (m *MockJobRepository) Fail(ctx context.Context, id string, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *MockJobRepository) List(ctx context.Context, status model.JobStatus, pq repository.PageQuery) (*repository.PageResult[model.Job], error) {
	args := m.Called(ctx, status, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Job]), args.Error(1)
}

func (m *MockJobRepository) CountByStatus(ctx context.Context) (map[model.JobStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.JobStatus]int), args.Error(1)
}
