package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docufold/docufold/internal/docs"
	"github.com/docufold/docufold/internal/docs/repository"
	"github.com/docufold/docufold/pkg/logger"
	"github.com/docufold/docufold/pkg/metrics"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrContentRequired = errors.New("content is required")
	ErrNotFound        = repository.ErrNotFound
	ErrDuplicateSlug   = repository.ErrDuplicateSlug
	// ErrContentUnavailable signals that metadata exists but the body blob
	// could not be read. Distinct from ErrNotFound so callers can tell a
	// missing document from a broken one.
	ErrContentUnavailable = errors.New("document content unavailable")
)

// ObjectStore is the blob-backend contract the service depends on. Both the
// MinIO and the in-memory store satisfy it.
type ObjectStore interface {
	Upload(ctx context.Context, path string, reader io.Reader, size int64, contentType string, overwrite bool) error
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	Stat(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, paths []string) error
	PublicURL(path string) string
}

// Image is one uploaded asset accompanying a create/update request.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// DocumentWithContent is a document plus its downloaded body.
type DocumentWithContent struct {
	docs.Document
	Content    string `json:"content"`
	ContentURL string `json:"contentUrl,omitempty"`
}

// CreateResult is the outcome of a successful create.
type CreateResult struct {
	Doc        *docs.Document
	ImageCount int
}

// Service orchestrates slug generation, image-path rewriting and the two
// storage backends into document create/read/update/delete. All dependencies
// are injected; the service holds no global state.
type Service struct {
	repo      repository.Repository
	store     ObjectStore
	rewriter  docs.PathRewriter
	namespace string
	ext       string
}

func New(repo repository.Repository, store ObjectStore, rewriter docs.PathRewriter, namespace, ext string) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		rewriter:  rewriter,
		namespace: namespace,
		ext:       strings.TrimPrefix(ext, "."),
	}
}

func (s *Service) contentPath(slug string) string {
	return s.namespace + "/" + slug + "/index." + s.ext
}

func (s *Service) imagePath(slug, name string) string {
	return s.namespace + "/" + slug + "/images/" + docs.NormalizeImageName(name)
}

func (s *Service) folderPrefix(slug string) string {
	return s.namespace + "/" + slug + "/"
}

// Create uploads a new document: images first (per-image failures are logged
// and skipped), then the rewritten content blob, then the metadata row. When a
// critical step fails, already-written objects are compensated in reverse
// order; compensation failures are logged, never surfaced.
func (s *Service) Create(ctx context.Context, title, content string, images []Image) (*CreateResult, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	if content == "" {
		return nil, ErrContentRequired
	}
	slug := docs.Slugify(title)
	if slug == "" {
		return nil, fmt.Errorf("%w: no usable characters in title", ErrTitleRequired)
	}

	// Friendly pre-check; the repository's unique slug constraint is the
	// authoritative backstop against concurrent creates.
	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return nil, ErrDuplicateSlug
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("slug lookup: %w", err)
	}

	var committed []string
	undo := func() {
		for i := len(committed) - 1; i >= 0; i-- {
			if err := s.store.Remove(ctx, []string{committed[i]}); err != nil {
				logger.Errorf("cleanup of %s failed: %v", committed[i], err)
			}
		}
	}

	imageCount := 0
	for _, img := range images {
		path := s.imagePath(slug, img.Name)
		if err := s.store.Upload(ctx, path, bytes.NewReader(img.Data), int64(len(img.Data)), img.contentTypeOrDefault(), false); err != nil {
			logger.Warnf("failed to upload image %s: %v", img.Name, err)
			metrics.StorageErrors.WithLabelValues("upload_image").Inc()
			continue
		}
		committed = append(committed, path)
		imageCount++
	}

	rewritten := s.rewriter.Rewrite(content, slug)
	blobPath := s.contentPath(slug)
	if err := s.store.Upload(ctx, blobPath, strings.NewReader(rewritten), int64(len(rewritten)), "text/markdown", false); err != nil {
		metrics.StorageErrors.WithLabelValues("upload_content").Inc()
		undo()
		metrics.DocOperations.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("upload content blob: %w", err)
	}
	committed = append(committed, blobPath)

	doc, err := s.repo.Insert(ctx, &docs.Document{Title: title, Slug: slug, FilePath: blobPath})
	if err != nil {
		undo()
		metrics.DocOperations.WithLabelValues("create", "error").Inc()
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("insert metadata: %w", err)
	}

	metrics.DocOperations.WithLabelValues("create", "ok").Inc()
	return &CreateResult{Doc: doc, ImageCount: imageCount}, nil
}

// GetBySlug returns metadata plus downloaded content. A missing row is
// ErrNotFound; a row whose blob cannot be read is ErrContentUnavailable.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*DocumentWithContent, error) {
	doc, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	rc, err := s.store.Download(ctx, doc.FilePath)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("download_content").Inc()
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	return &DocumentWithContent{Document: *doc, Content: string(body), ContentURL: s.store.PublicURL(doc.FilePath)}, nil
}

// List returns all document metadata, newest first.
func (s *Service) List(ctx context.Context) ([]*docs.Document, error) {
	return s.repo.List(ctx)
}

// ListWithContent returns all documents with their bodies. Per-document
// download failures yield an empty body rather than failing the listing.
func (s *Service) ListWithContent(ctx context.Context) ([]*DocumentWithContent, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*DocumentWithContent, 0, len(list))
	for _, doc := range list {
		item := &DocumentWithContent{Document: *doc, ContentURL: s.store.PublicURL(doc.FilePath)}
		if rc, err := s.store.Download(ctx, doc.FilePath); err != nil {
			logger.Warnf("failed to fetch content for %s: %v", doc.Slug, err)
		} else {
			body, rerr := io.ReadAll(rc)
			rc.Close()
			if rerr != nil {
				logger.Warnf("failed to read content for %s: %v", doc.Slug, rerr)
			} else {
				item.Content = string(body)
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// Update applies any subset of title/content/images to an existing document.
// A title change that alters the slug migrates the whole folder
// (copy, verify, then delete old) before the single metadata write; the
// metadata row stays authoritative, so a crash mid-migration leaves at worst
// harmless copies under the new prefix.
func (s *Service) Update(ctx context.Context, id string, title, content *string, images []Image) (*docs.Document, error) {
	// Every supplied field is validated up front; nothing may touch storage
	// until the whole request is known to be acceptable.
	if content != nil && *content == "" {
		return nil, ErrContentRequired
	}
	if title != nil && docs.Slugify(*title) == "" {
		return nil, fmt.Errorf("%w: no usable characters in title", ErrTitleRequired)
	}

	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newSlug := cur.Slug
	upd := repository.Update{}

	if title != nil && *title != cur.Title {
		ns := docs.Slugify(*title)
		if ns != cur.Slug {
			if other, err := s.repo.GetBySlug(ctx, ns); err == nil && other.ID != id {
				return nil, ErrDuplicateSlug
			} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("slug lookup: %w", err)
			}
			if err := s.migrateFolder(ctx, cur.Slug, ns); err != nil {
				metrics.DocOperations.WithLabelValues("update", "error").Inc()
				return nil, err
			}
			newSlug = ns
			fp := s.contentPath(ns)
			upd.Slug = &newSlug
			upd.FilePath = &fp
		}
		upd.Title = title
	}

	if content != nil {
		rewritten := s.rewriter.Rewrite(*content, newSlug)
		blobPath := s.contentPath(newSlug)
		if err := s.store.Upload(ctx, blobPath, strings.NewReader(rewritten), int64(len(rewritten)), "text/markdown", true); err != nil {
			metrics.StorageErrors.WithLabelValues("upload_content").Inc()
			metrics.DocOperations.WithLabelValues("update", "error").Inc()
			return nil, fmt.Errorf("upload content blob: %w", err)
		}
	}

	for _, img := range images {
		path := s.imagePath(newSlug, img.Name)
		if err := s.store.Upload(ctx, path, bytes.NewReader(img.Data), int64(len(img.Data)), img.contentTypeOrDefault(), true); err != nil {
			logger.Warnf("failed to upload image %s: %v", img.Name, err)
			metrics.StorageErrors.WithLabelValues("upload_image").Inc()
		}
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		metrics.DocOperations.WithLabelValues("update", "error").Inc()
		return nil, err
	}
	metrics.DocOperations.WithLabelValues("update", "ok").Inc()
	return updated, nil
}

// migrateFolder moves every object under the old slug's folder to the new
// slug's folder. The store has no rename, so this is copy, stat-verify, then
// delete-old; a failure mid-copy returns with both prefixes partially
// populated and the metadata row still pointing at the old, intact folder.
func (s *Service) migrateFolder(ctx context.Context, oldSlug, newSlug string) error {
	oldPrefix := s.folderPrefix(oldSlug)
	newPrefix := s.folderPrefix(newSlug)

	paths, err := s.store.List(ctx, oldPrefix)
	if err != nil {
		return fmt.Errorf("list %s: %w", oldPrefix, err)
	}
	for _, oldPath := range paths {
		newPath := newPrefix + strings.TrimPrefix(oldPath, oldPrefix)
		rc, err := s.store.Download(ctx, oldPath)
		if err != nil {
			return fmt.Errorf("download %s: %w", oldPath, err)
		}
		data, rerr := io.ReadAll(rc)
		rc.Close()
		if rerr != nil {
			return fmt.Errorf("read %s: %w", oldPath, rerr)
		}
		if err := s.store.Upload(ctx, newPath, bytes.NewReader(data), int64(len(data)), "", true); err != nil {
			return fmt.Errorf("copy to %s: %w", newPath, err)
		}
		if err := s.store.Stat(ctx, newPath); err != nil {
			return fmt.Errorf("verify %s: %w", newPath, err)
		}
	}
	// Old copies are only removed once every new object verified. Failures
	// here are tolerable: the new prefix is complete and authoritative.
	if len(paths) > 0 {
		if err := s.store.Remove(ctx, paths); err != nil {
			logger.Warnf("failed to remove old folder %s: %v", oldPrefix, err)
		}
	}
	return nil
}

// Delete removes every object under the document's folder, then the metadata
// row. Storage cleanup runs first so a crash in between leaves only a row
// pointing at nothing, and a retry of the delete still finds it.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	prefix := s.folderPrefix(doc.Slug)
	paths, err := s.store.List(ctx, prefix)
	if err != nil {
		logger.Warnf("failed to list %s for deletion: %v", prefix, err)
		metrics.StorageErrors.WithLabelValues("list").Inc()
	}
	if len(paths) > 0 {
		if err := s.store.Remove(ctx, paths); err != nil {
			logger.Warnf("failed to delete some objects under %s: %v", prefix, err)
			metrics.StorageErrors.WithLabelValues("remove").Inc()
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		metrics.DocOperations.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.DocOperations.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (i Image) contentTypeOrDefault() string {
	if i.ContentType == "" {
		return "application/octet-stream"
	}
	return i.ContentType
}
