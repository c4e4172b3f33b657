package repository

import (
	"context"

	"vlocr/internal/model"
)

// DocumentRepository defines data access for uploaded documents using SQL
// queries only. No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row
	// (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByHash returns the most recent document with the given content
	// hash, used for upload deduplication. Returns sql.ErrNoRows when
	// nothing matches.
	FindByHash(ctx context.Context, hash string) (*model.Document, error)

	// List returns a paginated list of documents and total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
