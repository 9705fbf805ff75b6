package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufold/docufold/internal/docs"
	"github.com/docufold/docufold/internal/docs/repository"
	"github.com/docufold/docufold/internal/docs/service"
	"github.com/docufold/docufold/internal/storage"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStore("docufold-test", "https://files.example.com")
	repo := repository.NewMemoryRepo()
	rw := docs.PathRewriter{BaseURL: "https://files.example.com", Bucket: "docufold-test", Namespace: "DOCUMENTATION"}
	svc := service.New(repo, store, rw, "DOCUMENTATION", "mdx")

	g := gin.New()
	New(svc).Register(g, nil)
	return g
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := w.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestDocumentLifecycle(t *testing.T) {
	g := newTestRouter(t)

	// CREATE
	body, ctype := multipartBody(t, map[string]string{"title": "Getting Started", "content": "# Welcome"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/docs", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"].(string)
	require.Equal(t, "getting-started", created["slug"])

	// GET by slug
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/getting-started", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "# Welcome", got["content"])

	// LIST
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "getting-started", list[0]["slug"])

	// LIST with content
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs?include=content", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "# Welcome", list[0]["content"])

	// PATCH content only
	body, ctype = multipartBody(t, map[string]string{"content": "# Updated"}, nil)
	req = httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/docs/%s", id), body)
	req.Header.Set("Content-Type", ctype)
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var patched map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &patched))
	assert.Equal(t, "getting-started", patched["slug"])

	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/getting-started", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "# Updated", got["content"])

	// DELETE
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/docs/%s", id), nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/getting-started", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateWithImage(t *testing.T) {
	g := newTestRouter(t)

	fields := map[string]string{"title": "API Guide", "content": "See ![img](screenshot.png)"}
	files := map[string][]byte{"image_0": {0x89, 0x50, 0x4e, 0x47}}
	body, ctype := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/api/docs", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, float64(1), created["imageCount"])

	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/api-guide", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Contains(t, got["content"], "/api-guide/images/screenshot.png")
}

func TestCreateConflict(t *testing.T) {
	g := newTestRouter(t)

	for i, wantCode := range []int{http.StatusCreated, http.StatusConflict} {
		body, ctype := multipartBody(t, map[string]string{"title": "Same Title", "content": "x"}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/docs", body)
		req.Header.Set("Content-Type", ctype)
		w := httptest.NewRecorder()
		g.ServeHTTP(w, req)
		require.Equal(t, wantCode, w.Code, "request %d: %s", i, w.Body.String())
	}
}

func TestCreateValidation(t *testing.T) {
	g := newTestRouter(t)

	body, ctype := multipartBody(t, map[string]string{"content": "no title"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/docs", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation")
}

func TestDeleteMissing(t *testing.T) {
	g := newTestRouter(t)

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/docs/unknown-id", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
