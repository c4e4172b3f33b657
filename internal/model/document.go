package model

import "time"

// Document represents a stored upload in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	StoragePath      string    `json:"storage_path"`
	Size             int64     `json:"size"`
	ContentType      string    `json:"content_type"`
	FileHash         string    `json:"file_hash"`
	TotalPages       int       `json:"total_pages"`
	CreatedAt        time.Time `json:"created_at"`
}

// DocumentMeta is the document summary embedded in OCR responses.
type DocumentMeta struct {
	Filename   string  `json:"filename"`
	FileSizeMB float64 `json:"file_size_mb"`
	FileType   string  `json:"file_type"`
	TotalPages int     `json:"total_pages"`
}
