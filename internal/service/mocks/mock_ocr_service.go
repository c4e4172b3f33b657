package mocks

import (
	"context"
	"encoding/json"

	"vlocr/internal/inference"
	"vlocr/internal/model"
	"vlocr/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockOCRService struct {
	mock.Mock
}

func (m *MockOCRService) Process(ctx context.Context, up *service.Upload, params service.ProcessParams) (*service.OCRResponse, error) {
	args := m.Called(ctx, up, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OCRResponse), args.Error(1)
}

func (m *MockOCRService) Enqueue(ctx context.Context, up *service.Upload, params service.ProcessParams) (*model.Job, error) {
	args := m.Called(ctx, up, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockOCRService) ProcessJob(ctx context.Context, job *model.Job) (json.RawMessage, error) {
	args := m.Called(ctx, job)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockOCRService) Status(ctx context.Context, jobID string) (*model.Job, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockOCRService) Cancel(ctx context.Context, jobID string) (*model.Job, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockOCRService) Batch(ctx context.Context, ups []*service.Upload, params service.ProcessParams) (*service.BatchResponse, error) {
	args := m.Called(ctx, ups, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchResponse), args.Error(1)
}

func (m *MockOCRService) Classify(ctx context.Context, up *service.Upload, text string) (*model.Classification, error) {
	args := m.Called(ctx, up, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Classification), args.Error(1)
}

func (m *MockOCRService) DetectLanguage(ctx context.Context, up *service.Upload, text string) (*model.LanguageDetection, error) {
	args := m.Called(ctx, up, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LanguageDetection), args.Error(1)
}

func (m *MockOCRService) ExtractEntities(ctx context.Context, up *service.Upload, text string) (*model.ExtractionResult, error) {
	args := m.Called(ctx, up, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExtractionResult), args.Error(1)
}

func (m *MockOCRService) Structured(ctx context.Context, up *service.Upload) (*model.StructuredOutput, error) {
	args := m.Called(ctx, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StructuredOutput), args.Error(1)
}

func (m *MockOCRService) EngineInfo() inference.Info {
	args := m.Called()
	return args.Get(0).(inference.Info)
}
