package repository

import (
	"context"
	"errors"

	"github.com/docufold/docufold/internal/docs"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrDuplicateSlug = errors.New("a document with this slug already exists")
)

// Update carries the mutable metadata fields for a single-write update.
// Nil fields are left unchanged; UpdatedAt is always refreshed by the repo.
type Update struct {
	Title    *string
	Slug     *string
	FilePath *string
}

// Repository is the metadata-store contract the document service depends on.
type Repository interface {
	Insert(ctx context.Context, d *docs.Document) (*docs.Document, error)
	GetByID(ctx context.Context, id string) (*docs.Document, error)
	GetBySlug(ctx context.Context, slug string) (*docs.Document, error)
	List(ctx context.Context) ([]*docs.Document, error)
	Update(ctx context.Context, id string, u Update) (*docs.Document, error)
	Delete(ctx context.Context, id string) error
}
