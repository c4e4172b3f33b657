package service

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/png"
	"testing"

	"vlocr/internal/config"
	"vlocr/internal/inference"
	infmocks "vlocr/internal/inference/mocks"
	"vlocr/internal/model"
	repomocks "vlocr/internal/repository/mocks"
	"vlocr/internal/storage"
	storagemocks "vlocr/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Model: config.ModelConfig{
			Backend:   "gemini",
			Name:      "gemini-2.0-flash",
			MaxTokens: 1024,
			Prompt:    config.DefaultPrompt,
		},
		Processing: config.ProcessingConfig{MaxImageSize: 1024, MaxFileSizeMB: 10},
		Queue:      config.QueueConfig{Workers: 1, MaxRetries: 3},
	}
}

func pngUpload(t *testing.T, name string) *Upload {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return &Upload{Filename: name, ContentType: "image/png", Data: buf.Bytes()}
}

type fakeEnqueuer struct {
	enqueued []*model.Job
	cancelOK bool
}

func (f *fakeEnqueuer) Enqueue(job *model.Job) { f.enqueued = append(f.enqueued, job) }
func (f *fakeEnqueuer) Cancel(ctx context.Context, jobID string) (bool, error) {
	return f.cancelOK, nil
}

func newTestService(engine inference.Engine) (*ocrService, *repomocks.MockDocumentRepository, *repomocks.MockJobRepository, *storagemocks.MockStorage) {
	docs := new(repomocks.MockDocumentRepository)
	jobs := new(repomocks.MockJobRepository)
	store := new(storagemocks.MockStorage)
	svc := NewOCRService(testConfig(), engine, store, docs, jobs, nil)
	return svc, docs, jobs, store
}

const annotatedText = `INVOICE #INV-2024-001
Invoice Date: 01/15/2024
Bill To: Acme Corp
Amount Due: $1,234.56
<table><tr><th>Description</th><th>Qty</th><th>Amount</th></tr><tr><td>Widget</td><td>2</td><td>$10.00</td></tr></table>
<page_number>1</page_number>`

func TestProcessRunsFullPipeline(t *testing.T) {
	engine := new(infmocks.MockEngine)
	engine.On("Recognize", mock.Anything, "image/png", mock.Anything, mock.Anything, 1024).
		Return(annotatedText, nil)
	engine.On("Info").Return(inference.Info{Backend: "gemini", Model: "gemini-2.0-flash", Remote: true})

	svc, _, _, _ := newTestService(engine)

	resp, err := svc.Process(context.Background(), pngUpload(t, "invoice.png"), ProcessParams{
		ClassifyDocument: true,
		DetectLanguage:   true,
		ExtractFields:    true,
		StructuredOutput: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "invoice.png", resp.Document.Filename)
	assert.Equal(t, "png", resp.Document.FileType)
	assert.Contains(t, resp.FullText, "INVOICE")
	assert.Equal(t, "markdown", resp.OutputFormat)
	require.NotNil(t, resp.Classification)
	assert.Equal(t, "invoice", resp.Classification.DocumentType)
	require.NotNil(t, resp.Language)
	assert.Equal(t, "en", resp.Language.PrimaryLanguage)
	require.NotNil(t, resp.Extraction)
	require.NotNil(t, resp.Structured)
	assert.NotEmpty(t, resp.Structured.LineItems)
	assert.False(t, resp.Cached)
	engine.AssertExpectations(t)
}

func TestProcessConfidenceThresholdDowngradesType(t *testing.T) {
	engine := new(infmocks.MockEngine)
	engine.On("Recognize", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("invoice", nil)
	engine.On("Info").Return(inference.Info{Backend: "gemini"})

	svc, _, _, _ := newTestService(engine)

	resp, err := svc.Process(context.Background(), pngUpload(t, "weak.png"), ProcessParams{
		ClassifyDocument:    true,
		ConfidenceThreshold: 0.99,
	})

	require.NoError(t, err)
	assert.Equal(t, "unknown", resp.Classification.DocumentType)
}

func TestProcessRejectsUnsupportedType(t *testing.T) {
	svc, _, _, _ := newTestService(new(infmocks.MockEngine))

	_, err := svc.Process(context.Background(), &Upload{Filename: "run.exe", Data: []byte("x")}, ProcessParams{})

	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestProcessRejectsMissingFile(t *testing.T) {
	svc, _, _, _ := newTestService(new(infmocks.MockEngine))

	_, err := svc.Process(context.Background(), nil, ProcessParams{})

	assert.ErrorIs(t, err, ErrFileRequired)
}

func TestProcessRejectsOversizedFile(t *testing.T) {
	svc, _, _, _ := newTestService(new(infmocks.MockEngine))
	svc.cfg.Processing.MaxFileSizeMB = 1

	big := &Upload{Filename: "big.png", Data: make([]byte, 2<<20)}
	_, err := svc.Process(context.Background(), big, ProcessParams{})

	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestEnqueuePersistsAndQueuesJob(t *testing.T) {
	svc, docs, jobs, store := newTestService(new(infmocks.MockEngine))
	enq := &fakeEnqueuer{}
	svc.SetQueue(enq)

	up := pngUpload(t, "scan.png")

	docs.On("FindByHash", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows)
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: "uploads/abc.png", Size: int64(len(up.Data))}, nil)
	docs.On("Create", mock.Anything, mock.Anything).Return(&model.Document{ID: "doc-1"}, nil).
		Run(func(args mock.Arguments) {
			doc := args.Get(1).(*model.Document)
			assert.Equal(t, "scan.png", doc.OriginalFilename)
			assert.NotEmpty(t, doc.FileHash)
		})
	jobs.On("Create", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, job *model.Job) *model.Job { return job }, nil)

	job, err := svc.Enqueue(context.Background(), up, ProcessParams{Priority: model.PriorityHigh, WebhookURL: "https://example.com/cb"})

	require.NoError(t, err)
	assert.Equal(t, model.JobPending, job.Status)
	assert.Equal(t, model.PriorityHigh, job.Priority)
	assert.Equal(t, "https://example.com/cb", job.WebhookURL)
	assert.Len(t, enq.enqueued, 1)
	docs.AssertExpectations(t)
	jobs.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestEnqueueReusesExistingDocument(t *testing.T) {
	svc, docs, jobs, store := newTestService(new(infmocks.MockEngine))
	svc.SetQueue(&fakeEnqueuer{})

	up := pngUpload(t, "dup.png")
	docs.On("FindByHash", mock.Anything, mock.Anything).Return(&model.Document{ID: "doc-existing"}, nil)
	jobs.On("Create", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, job *model.Job) *model.Job { return job }, nil)

	job, err := svc.Enqueue(context.Background(), up, ProcessParams{})

	require.NoError(t, err)
	assert.Equal(t, "doc-existing", job.DocumentID)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusNotFound(t *testing.T) {
	svc, _, jobs, _ := newTestService(new(infmocks.MockEngine))
	jobs.On("FindByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	_, err := svc.Status(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelNotCancellable(t *testing.T) {
	svc, _, _, _ := newTestService(new(infmocks.MockEngine))
	svc.SetQueue(&fakeEnqueuer{cancelOK: false})

	_, err := svc.Cancel(context.Background(), "done-job")

	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestBatchPartialFailure(t *testing.T) {
	engine := new(infmocks.MockEngine)
	engine.On("Recognize", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("hello world", nil)
	engine.On("Info").Return(inference.Info{Backend: "gemini"})

	svc, _, _, _ := newTestService(engine)

	ups := []*Upload{
		pngUpload(t, "good.png"),
		{Filename: "bad.xyz", Data: []byte("nope")},
	}

	resp, err := svc.Batch(context.Background(), ups, ProcessParams{})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	assert.True(t, resp.Items[0].Success)
	assert.False(t, resp.Items[1].Success)
	assert.Contains(t, resp.Items[1].Error, "unsupported file type")
}

func TestClassifyText(t *testing.T) {
	svc, _, _, _ := newTestService(new(infmocks.MockEngine))

	c, err := svc.Classify(context.Background(), nil, "invoice number INV-1 amount due total")

	require.NoError(t, err)
	assert.Equal(t, "invoice", c.DocumentType)
}

func TestClassifyRequiresInput(t *testing.T) {
	svc, _, _, _ := newTestService(new(infmocks.MockEngine))

	_, err := svc.Classify(context.Background(), nil, "   ")

	assert.ErrorIs(t, err, ErrInputRequired)
}

func TestDetectLanguageText(t *testing.T) {
	svc, _, _, _ := newTestService(new(infmocks.MockEngine))

	l, err := svc.DetectLanguage(context.Background(), nil, "the quick brown fox and the lazy dog are in the yard with their friends")

	require.NoError(t, err)
	assert.Equal(t, "en", l.PrimaryLanguage)
}

func TestExtractEntitiesText(t *testing.T) {
	svc, _, _, _ := newTestService(new(infmocks.MockEngine))

	e, err := svc.ExtractEntities(context.Background(), nil, "Contact John Smith at john@example.com for $500.00 by 01/15/2024")

	require.NoError(t, err)
	assert.NotEmpty(t, e.Entities)
}
