// internal/domain/search/engine.go
package search

import "context"

// Engine is a product search backend
type Engine interface {
	// Index upserts documents
	Index(ctx context.Context, docs ...Document) error
	// Delete removes a document; a missing document is not an error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, q Query) (*Result, error)
	// Suggest returns up to limit distinct product names starting with prefix
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
}
