package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/docufold/docufold/internal/docs"
	"github.com/docufold/docufold/internal/docs/repository"
	"github.com/docufold/docufold/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBase   = "https://files.example.com"
	testBucket = "docufold-test"
)

func newTestService(t *testing.T) (*Service, *storage.MemoryStore, *repository.MemoryRepo) {
	t.Helper()
	store := storage.NewMemoryStore(testBucket, testBase)
	repo := repository.NewMemoryRepo()
	rw := docs.PathRewriter{BaseURL: testBase, Bucket: testBucket, Namespace: "DOCUMENTATION"}
	return New(repo, store, rw, "DOCUMENTATION", "mdx"), store, repo
}

func TestCreateRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, "Hello World", "# Hi", nil)
	require.NoError(t, err)
	require.Equal(t, "hello-world", res.Doc.Slug)
	require.Equal(t, "DOCUMENTATION/hello-world/index.mdx", res.Doc.FilePath)
	require.Zero(t, res.ImageCount)

	got, err := svc.GetBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, "# Hi", got.Content)
	assert.Contains(t, got.ContentURL, "/DOCUMENTATION/hello-world/index.mdx")
}

func TestCreateWithImageRewritesContent(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	img := Image{Name: "screenshot.png", ContentType: "image/png", Data: []byte{0x89, 0x50}}
	res, err := svc.Create(ctx, "API Guide", "See ![img](screenshot.png)", []Image{img})
	require.NoError(t, err)
	require.Equal(t, "api-guide", res.Doc.Slug)
	require.Equal(t, 1, res.ImageCount)

	require.NoError(t, store.Stat(ctx, "DOCUMENTATION/api-guide/images/screenshot.png"))

	got, err := svc.GetBySlug(ctx, "api-guide")
	require.NoError(t, err)
	assert.Contains(t, got.Content, "/api-guide/images/screenshot.png)")
	assert.NotContains(t, got.Content, "](screenshot.png)")
}

func TestCreateDuplicateSlug(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Getting Started", "first", nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "Getting Started!!", "second", nil)
	require.ErrorIs(t, err, ErrDuplicateSlug)

	// first document untouched
	got, err := svc.GetBySlug(ctx, "getting-started")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Content)
}

func TestCreateValidation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "", "body", nil)
	require.ErrorIs(t, err, ErrTitleRequired)
	_, err = svc.Create(ctx, "Title", "", nil)
	require.ErrorIs(t, err, ErrContentRequired)
	_, err = svc.Create(ctx, "!!!", "body", nil)
	require.ErrorIs(t, err, ErrTitleRequired)

	// no partial writes from rejected requests
	paths, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

// failingInsertRepo wraps the memory repo with an Insert that always errors,
// to exercise the compensating cleanup path.
type failingInsertRepo struct {
	*repository.MemoryRepo
}

func (f *failingInsertRepo) Insert(ctx context.Context, d *docs.Document) (*docs.Document, error) {
	return nil, errors.New("metadata store down")
}

func TestCreateCompensatesOnInsertFailure(t *testing.T) {
	store := storage.NewMemoryStore(testBucket, testBase)
	repo := &failingInsertRepo{repository.NewMemoryRepo()}
	rw := docs.PathRewriter{BaseURL: testBase, Bucket: testBucket, Namespace: "DOCUMENTATION"}
	svc := New(repo, store, rw, "DOCUMENTATION", "mdx")
	ctx := context.Background()

	img := Image{Name: "pic.png", Data: []byte{1}}
	_, err := svc.Create(ctx, "Doomed Doc", "body ![p](pic.png)", []Image{img})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrDuplicateSlug)

	// blob and image rolled back
	paths, lerr := store.List(ctx, "DOCUMENTATION/doomed-doc/")
	require.NoError(t, lerr)
	assert.Empty(t, paths)
}

func TestGetBySlugDistinguishesMissingContent(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetBySlug(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)

	// row exists but blob does not
	_, err = repo.Insert(ctx, &docs.Document{Title: "Ghost", Slug: "ghost", FilePath: "DOCUMENTATION/ghost/index.mdx"})
	require.NoError(t, err)
	_, err = svc.GetBySlug(ctx, "ghost")
	require.ErrorIs(t, err, ErrContentUnavailable)
}

func TestUpdateContentOnlyKeepsSlug(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, "Stable Doc", "v1", nil)
	require.NoError(t, err)
	before := res.Doc.UpdatedAt

	body := "v2"
	updated, err := svc.Update(ctx, res.Doc.ID, nil, &body, nil)
	require.NoError(t, err)
	assert.Equal(t, "stable-doc", updated.Slug)
	assert.Equal(t, res.Doc.FilePath, updated.FilePath)
	assert.False(t, updated.UpdatedAt.Before(before))

	got, err := svc.GetBySlug(ctx, "stable-doc")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
}

func TestUpdateTitleMigratesFolder(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	img := Image{Name: "fig.png", Data: []byte{1, 2}}
	res, err := svc.Create(ctx, "Old Name", "body ![f](fig.png)", []Image{img})
	require.NoError(t, err)

	title := "New Name"
	updated, err := svc.Update(ctx, res.Doc.ID, &title, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "new-name", updated.Slug)
	assert.Equal(t, "DOCUMENTATION/new-name/index.mdx", updated.FilePath)

	// everything moved, old prefix emptied
	require.NoError(t, store.Stat(ctx, "DOCUMENTATION/new-name/images/fig.png"))
	oldPaths, err := store.List(ctx, "DOCUMENTATION/old-name/")
	require.NoError(t, err)
	assert.Empty(t, oldPaths)

	got, err := svc.GetBySlug(ctx, "new-name")
	require.NoError(t, err)
	assert.Contains(t, got.Content, "images/fig.png")
}

func TestUpdateRejectsEmptyContentBeforeTouchingStorage(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	img := Image{Name: "fig.png", Data: []byte{1, 2}}
	res, err := svc.Create(ctx, "Old Name", "body ![f](fig.png)", []Image{img})
	require.NoError(t, err)

	// retitle plus empty content in the same request: rejected outright,
	// with the old folder untouched and the document still readable
	title := "New Name"
	empty := ""
	_, err = svc.Update(ctx, res.Doc.ID, &title, &empty, nil)
	require.ErrorIs(t, err, ErrContentRequired)

	oldPaths, err := store.List(ctx, "DOCUMENTATION/old-name/")
	require.NoError(t, err)
	assert.Len(t, oldPaths, 2)
	newPaths, err := store.List(ctx, "DOCUMENTATION/new-name/")
	require.NoError(t, err)
	assert.Empty(t, newPaths)

	got, err := svc.GetBySlug(ctx, "old-name")
	require.NoError(t, err)
	assert.Contains(t, got.Content, "images/fig.png")

	// unslugifiable retitle is rejected the same way
	bad := "!!!"
	_, err = svc.Update(ctx, res.Doc.ID, &bad, nil, nil)
	require.ErrorIs(t, err, ErrTitleRequired)
	oldPaths, err = store.List(ctx, "DOCUMENTATION/old-name/")
	require.NoError(t, err)
	assert.Len(t, oldPaths, 2)
}

func TestUpdateImagesOverwriteAtNewSlug(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	img := Image{Name: "chart.png", ContentType: "image/png", Data: []byte{1}}
	res, err := svc.Create(ctx, "Metrics Page", "see ![c](chart.png)", []Image{img})
	require.NoError(t, err)

	// retitle and re-upload an image with the same name in one request: the
	// migrated copy at the new prefix is overwritten with the new bytes
	title := "Metrics Overview"
	newImg := Image{Name: "chart.png", ContentType: "image/png", Data: []byte{9, 9}}
	updated, err := svc.Update(ctx, res.Doc.ID, &title, nil, []Image{newImg})
	require.NoError(t, err)
	assert.Equal(t, "metrics-overview", updated.Slug)

	rc, err := store.Download(ctx, "DOCUMENTATION/metrics-overview/images/chart.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, data)

	// image-only update at an unchanged slug overwrites in place too
	again := Image{Name: "chart.png", ContentType: "image/png", Data: []byte{7}}
	_, err = svc.Update(ctx, res.Doc.ID, nil, nil, []Image{again})
	require.NoError(t, err)
	rc, err = store.Download(ctx, "DOCUMENTATION/metrics-overview/images/chart.png")
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, data)
}

func TestUpdateTitleConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "First", "a", nil)
	require.NoError(t, err)
	res, err := svc.Create(ctx, "Second", "b", nil)
	require.NoError(t, err)

	title := "First"
	_, err = svc.Update(ctx, res.Doc.ID, &title, nil, nil)
	require.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestUpdateMissing(t *testing.T) {
	svc, _, _ := newTestService(t)
	title := "Whatever"
	_, err := svc.Update(context.Background(), "no-such-id", &title, nil, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesFolderAndRow(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	img := Image{Name: "a.png", Data: []byte{1}}
	res, err := svc.Create(ctx, "Short Lived", "bye ![a](a.png)", []Image{img})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, res.Doc.ID))

	paths, err := store.List(ctx, "DOCUMENTATION/short-lived/")
	require.NoError(t, err)
	assert.Empty(t, paths)
	_, err = svc.GetBySlug(ctx, "short-lived")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingMakesNoStorageCalls(t *testing.T) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore(testBucket, testBase)}
	repo := repository.NewMemoryRepo()
	rw := docs.PathRewriter{BaseURL: testBase, Bucket: testBucket, Namespace: "DOCUMENTATION"}
	svc := New(repo, store, rw, "DOCUMENTATION", "mdx")

	err := svc.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.calls)
}

// countingStore counts object-store calls on top of the memory store.
type countingStore struct {
	*storage.MemoryStore
	calls int
}

func (c *countingStore) List(ctx context.Context, prefix string) ([]string, error) {
	c.calls++
	return c.MemoryStore.List(ctx, prefix)
}

func (c *countingStore) Remove(ctx context.Context, paths []string) error {
	c.calls++
	return c.MemoryStore.Remove(ctx, paths)
}

func (c *countingStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	c.calls++
	return c.MemoryStore.Download(ctx, path)
}
