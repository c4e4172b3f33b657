package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"vlocr/internal/cache"
	"vlocr/internal/config"
	"vlocr/internal/inference"
	"vlocr/internal/model"
	"vlocr/internal/ocr"
	"vlocr/internal/repository"
	"vlocr/internal/storage"
)

var (
	ErrFileRequired        = errors.New("file is required")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrNotFound            = errors.New("job not found")
	ErrNotCancellable      = errors.New("job is not cancellable")
	ErrInputRequired       = errors.New("either file or text is required")
)

// Upload is an incoming multipart file read into memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProcessParams are the per-request processing options from the form fields.
type ProcessParams struct {
	MaxTokens           int               `json:"max_tokens"`
	OutputFormat        string            `json:"output_format"`
	ExtractFields       bool              `json:"extract_fields"`
	StructuredOutput    bool              `json:"structured_output"`
	DetectLanguage      bool              `json:"detect_language"`
	ClassifyDocument    bool              `json:"classify_document"`
	ConfidenceThreshold float64           `json:"confidence_threshold"`
	Async               bool              `json:"-"`
	Priority            model.JobPriority `json:"priority"`
	WebhookURL          string            `json:"-"`
}

// Normalize fills defaults for zero-valued params.
func (p *ProcessParams) Normalize(cfg config.ModelConfig) {
	if p.MaxTokens <= 0 {
		p.MaxTokens = cfg.MaxTokens
	}
	if p.OutputFormat == "" {
		p.OutputFormat = "markdown"
	}
	p.OutputFormat = strings.ToLower(p.OutputFormat)
	if p.Priority == 0 {
		p.Priority = model.PriorityNormal
	}
}

// OCRResponse is the synchronous processing result.
type OCRResponse struct {
	Document       model.DocumentMeta       `json:"document"`
	Pages          []model.ParsedPage       `json:"pages"`
	FullText       string                   `json:"full_text"`
	Output         string                   `json:"output"`
	OutputFormat   string                   `json:"output_format"`
	Classification *model.Classification    `json:"classification,omitempty"`
	Language       *model.LanguageDetection `json:"language,omitempty"`
	Extraction     *model.ExtractionResult  `json:"extraction,omitempty"`
	Structured     *model.StructuredOutput  `json:"structured,omitempty"`
	Model          inference.Info           `json:"model"`
	ProcessingMS   int64                    `json:"processing_time_ms"`
	Cached         bool                     `json:"cached"`
}

// BatchItem is the per-file outcome in a batch response.
type BatchItem struct {
	Filename string       `json:"filename"`
	Success  bool         `json:"success"`
	Error    string       `json:"error,omitempty"`
	Result   *OCRResponse `json:"result,omitempty"`
}

// BatchResponse aggregates batch processing outcomes.
type BatchResponse struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}

// JobEnqueuer is the slice of the queue the service needs.
type JobEnqueuer interface {
	Enqueue(job *model.Job)
	Cancel(ctx context.Context, jobID string) (bool, error)
}

// OCRService defines the document recognition use cases.
type OCRService interface {
	// Process runs the full pipeline synchronously.
	Process(ctx context.Context, up *Upload, params ProcessParams) (*OCRResponse, error)

	// Enqueue stores the upload, persists a job row and hands it to the
	// worker pool. Returns the pending job.
	Enqueue(ctx context.Context, up *Upload, params ProcessParams) (*model.Job, error)

	// ProcessJob executes a persisted job; wired as the queue's ProcessFunc.
	ProcessJob(ctx context.Context, job *model.Job) (json.RawMessage, error)

	// Status returns a job by ID.
	Status(ctx context.Context, jobID string) (*model.Job, error)

	// Cancel cancels a pending job.
	Cancel(ctx context.Context, jobID string) (*model.Job, error)

	// Batch processes multiple uploads, tolerating per-file failures.
	Batch(ctx context.Context, ups []*Upload, params ProcessParams) (*BatchResponse, error)

	// Classify returns the document type for a file or raw text.
	Classify(ctx context.Context, up *Upload, text string) (*model.Classification, error)

	// DetectLanguage returns language detection for a file or raw text.
	DetectLanguage(ctx context.Context, up *Upload, text string) (*model.LanguageDetection, error)

	// ExtractEntities returns entity and field extraction for a file or raw text.
	ExtractEntities(ctx context.Context, up *Upload, text string) (*model.ExtractionResult, error)

	// Structured returns the combined v2 structured output for an upload.
	Structured(ctx context.Context, up *Upload) (*model.StructuredOutput, error)

	// EngineInfo describes the active inference backend.
	EngineInfo() inference.Info
}

type ocrService struct {
	cfg       *config.AppConfig
	engine    inference.Engine
	store     storage.Storage
	docs      repository.DocumentRepository
	jobs      repository.JobRepository
	cache     *cache.Client
	queue     JobEnqueuer
	parser    *ocr.Parser
	converter *ocr.Converter
	classify  *ocr.Classifier
	language  *ocr.LanguageDetector
	extractor *ocr.Extractor
	struct2   *ocr.StructuredProcessor
}

// NewOCRService constructs the service. The queue is attached separately
// because it needs the service's ProcessJob as its process function.
func NewOCRService(
	cfg *config.AppConfig,
	engine inference.Engine,
	store storage.Storage,
	docs repository.DocumentRepository,
	jobs repository.JobRepository,
	c *cache.Client,
) *ocrService {
	return &ocrService{
		cfg:       cfg,
		engine:    engine,
		store:     store,
		docs:      docs,
		jobs:      jobs,
		cache:     c,
		parser:    ocr.NewParser(),
		converter: ocr.NewConverter(),
		classify:  ocr.NewClassifier(),
		language:  ocr.NewLanguageDetector(),
		extractor: ocr.NewExtractor(),
		struct2:   ocr.NewStructuredProcessor(),
	}
}

var _ OCRService = (*ocrService)(nil)

// SetQueue attaches the worker pool once it is constructed.
func (s *ocrService) SetQueue(q JobEnqueuer) {
	s.queue = q
}

func (s *ocrService) EngineInfo() inference.Info {
	return s.engine.Info()
}

func (s *ocrService) validate(up *Upload) (mime string, err error) {
	if up == nil || len(up.Data) == 0 {
		return "", ErrFileRequired
	}
	mime, ok := ocr.SupportedExtension(up.Filename)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, filepath.Ext(up.Filename))
	}
	maxBytes := int64(s.cfg.Processing.MaxFileSizeMB) << 20
	if maxBytes > 0 && int64(len(up.Data)) > maxBytes {
		return "", fmt.Errorf("%w: limit is %d MB", ErrFileTooLarge, s.cfg.Processing.MaxFileSizeMB)
	}
	return mime, nil
}

// recognize runs file preparation and model inference, returning the raw
// annotated text.
func (s *ocrService) recognize(ctx context.Context, up *Upload, mime string, maxTokens int) (string, error) {
	data := up.Data
	if !ocr.IsPDF(up.Filename) {
		prepared, err := ocr.Prepare(data, s.cfg.Processing.MaxImageSize)
		if err != nil {
			return "", fmt.Errorf("prepare image: %w", err)
		}
		data = prepared
		mime = "image/png"
	}
	text, err := s.engine.Recognize(ctx, mime, data, s.cfg.Model.Prompt, maxTokens)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}

func (s *ocrService) Process(ctx context.Context, up *Upload, params ProcessParams) (*OCRResponse, error) {
	mime, err := s.validate(up)
	if err != nil {
		return nil, err
	}
	params.Normalize(s.cfg.Model)

	var cacheKey string
	if s.cacheEnabled() {
		cacheKey = cache.ResultKey(up.Data, params)
		if data, err := s.cache.GetResult(ctx, cacheKey); err == nil {
			var resp OCRResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				resp.Cached = true
				return &resp, nil
			}
		} else if !cache.IsMiss(err) {
			log.Printf(`{"component":"service","event":"cache_read_failed","error":%q}`, err.Error())
		}
	}

	start := time.Now()
	raw, err := s.recognize(ctx, up, mime, params.MaxTokens)
	if err != nil {
		return nil, err
	}

	resp := s.enrich(raw, up, params)
	resp.Model = s.engine.Info()
	resp.ProcessingMS = time.Since(start).Milliseconds()

	if s.cacheEnabled() && cacheKey != "" {
		if data, err := json.Marshal(resp); err == nil {
			ttl := time.Duration(s.cfg.Cache.TTLSec) * time.Second
			if err := s.cache.SetResult(ctx, cacheKey, data, ttl); err != nil {
				log.Printf(`{"component":"service","event":"cache_write_failed","error":%q}`, err.Error())
			}
		}
	}
	return resp, nil
}

// enrich runs the post-inference pipeline: parse, convert, and the optional
// classification, language, extraction and structured stages.
func (s *ocrService) enrich(raw string, up *Upload, params ProcessParams) *OCRResponse {
	parsed := s.parser.Parse(raw)

	fullText := raw
	output := raw
	switch params.OutputFormat {
	case "json", "xml", "csv":
		if converted, err := s.converter.Convert(parsed, params.OutputFormat); err == nil {
			output = converted
		}
	}

	totalPages := len(parsed.Pages)
	if totalPages == 0 {
		totalPages = 1
	}
	resp := &OCRResponse{
		Document: model.DocumentMeta{
			Filename:   up.Filename,
			FileSizeMB: float64(len(up.Data)) / (1 << 20),
			FileType:   strings.TrimPrefix(strings.ToLower(filepath.Ext(up.Filename)), "."),
			TotalPages: totalPages,
		},
		Pages:        parsed.Pages,
		FullText:     fullText,
		Output:       output,
		OutputFormat: params.OutputFormat,
	}

	if params.ClassifyDocument {
		c := s.classify.Classify(fullText)
		if params.ConfidenceThreshold > 0 && c.Confidence < params.ConfidenceThreshold {
			c.DocumentType = ocr.TypeUnknown
		}
		resp.Classification = &c
	}
	if params.DetectLanguage {
		l := s.language.Detect(fullText)
		resp.Language = &l
	}
	if params.ExtractFields {
		e := s.extractor.Extract(fullText)
		if params.ConfidenceThreshold > 0 {
			filtered := e.Entities[:0]
			for _, ent := range e.Entities {
				if ent.Confidence >= params.ConfidenceThreshold {
					filtered = append(filtered, ent)
				}
			}
			e.Entities = filtered
		}
		resp.Extraction = &e
	}
	if params.StructuredOutput {
		var tablesHTML []string
		for _, p := range parsed.Pages {
			tablesHTML = append(tablesHTML, p.TablesHTML...)
		}
		so := s.struct2.Process(fullText, tablesHTML)
		resp.Structured = &so
	}
	return resp
}

func (s *ocrService) cacheEnabled() bool {
	return s.cache != nil && s.cfg.Cache.Enabled
}

// storeDocument uploads the file (deduplicating by content hash) and
// persists its metadata row.
func (s *ocrService) storeDocument(ctx context.Context, up *Upload, mime string) (*model.Document, error) {
	hash := storage.HashOf(up.Data)
	if existing, err := s.docs.FindByHash(ctx, hash); err == nil {
		return existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}

	key := storage.ObjectKey(up.Data, up.Filename)
	if _, err := s.store.Put(ctx, key, bytes.NewReader(up.Data), storage.PutObjectOptions{
		Size:        int64(len(up.Data)),
		ContentType: mime,
		Metadata: map[string]string{
			"original-filename": up.Filename,
		},
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:               uuid.New().String(),
		Filename:         filepath.Base(key),
		OriginalFilename: up.Filename,
		StoragePath:      key,
		Size:             int64(len(up.Data)),
		ContentType:      mime,
		FileHash:         hash,
		TotalPages:       1,
		CreatedAt:        time.Now().UTC(),
	}
	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *ocrService) Enqueue(ctx context.Context, up *Upload, params ProcessParams) (*model.Job, error) {
	mime, err := s.validate(up)
	if err != nil {
		return nil, err
	}
	params.Normalize(s.cfg.Model)

	doc, err := s.storeDocument(ctx, up, mime)
	if err != nil {
		return nil, err
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	job := &model.Job{
		ID:          uuid.New().String(),
		DocumentID:  doc.ID,
		Kind:        "ocr",
		Status:      model.JobPending,
		Priority:    params.Priority,
		MaxAttempts: s.cfg.Queue.MaxRetries,
		Params:      paramsJSON,
		WebhookURL:  params.WebhookURL,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.jobs.Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}

	if s.queue != nil {
		s.queue.Enqueue(stored)
	}
	return stored, nil
}

// ProcessJob re-reads the stored document and runs the sync pipeline,
// returning the response as the job result payload.
func (s *ocrService) ProcessJob(ctx context.Context, job *model.Job) (json.RawMessage, error) {
	doc, err := s.docs.FindByID(ctx, job.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("fetch object: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}

	var params ProcessParams
	if len(job.Params) > 0 {
		if err := json.Unmarshal(job.Params, &params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}

	up := &Upload{
		Filename:    doc.OriginalFilename,
		ContentType: doc.ContentType,
		Data:        data,
	}
	resp, err := s.Process(ctx, up, params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

func (s *ocrService) Status(ctx context.Context, jobID string) (*model.Job, error) {
	if s.cache != nil {
		if data, err := s.cache.GetJob(ctx, jobID); err == nil {
			var job model.Job
			if err := json.Unmarshal(data, &job); err == nil {
				return &job, nil
			}
		}
	}
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *ocrService) Cancel(ctx context.Context, jobID string) (*model.Job, error) {
	if s.queue == nil {
		return nil, ErrNotCancellable
	}
	ok, err := s.queue.Cancel(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !ok {
		return nil, ErrNotCancellable
	}
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *ocrService) Batch(ctx context.Context, ups []*Upload, params ProcessParams) (*BatchResponse, error) {
	if len(ups) == 0 {
		return nil, ErrFileRequired
	}

	resp := &BatchResponse{Total: len(ups)}
	for _, up := range ups {
		item := BatchItem{Filename: up.Filename}
		result, err := s.Process(ctx, up, params)
		if err != nil {
			item.Error = err.Error()
			resp.Failed++
		} else {
			item.Success = true
			item.Result = result
			resp.Succeeded++
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

// textFor returns OCR text for an upload, or the given raw text when no
// file was sent.
func (s *ocrService) textFor(ctx context.Context, up *Upload, text string) (string, error) {
	if up != nil && len(up.Data) > 0 {
		mime, err := s.validate(up)
		if err != nil {
			return "", err
		}
		return s.recognize(ctx, up, mime, s.cfg.Model.MaxTokens)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrInputRequired
	}
	return text, nil
}

func (s *ocrService) Classify(ctx context.Context, up *Upload, text string) (*model.Classification, error) {
	content, err := s.textFor(ctx, up, text)
	if err != nil {
		return nil, err
	}
	c := s.classify.Classify(content)
	return &c, nil
}

func (s *ocrService) DetectLanguage(ctx context.Context, up *Upload, text string) (*model.LanguageDetection, error) {
	content, err := s.textFor(ctx, up, text)
	if err != nil {
		return nil, err
	}
	l := s.language.Detect(content)
	return &l, nil
}

func (s *ocrService) ExtractEntities(ctx context.Context, up *Upload, text string) (*model.ExtractionResult, error) {
	content, err := s.textFor(ctx, up, text)
	if err != nil {
		return nil, err
	}
	e := s.extractor.Extract(content)
	return &e, nil
}

func (s *ocrService) Structured(ctx context.Context, up *Upload) (*model.StructuredOutput, error) {
	mime, err := s.validate(up)
	if err != nil {
		return nil, err
	}
	raw, err := s.recognize(ctx, up, mime, s.cfg.Model.MaxTokens)
	if err != nil {
		return nil, err
	}
	parsed := s.parser.Parse(raw)
	var tablesHTML []string
	for _, p := range parsed.Pages {
		tablesHTML = append(tablesHTML, p.TablesHTML...)
	}
	so := s.struct2.Process(raw, tablesHTML)
	return &so, nil
}
