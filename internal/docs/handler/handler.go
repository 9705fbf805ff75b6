package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docufold/docufold/internal/docs/service"
)

// Handler exposes the document service over HTTP. Reads are public; mutations
// go through the supplied auth middleware.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler { return &Handler{svc: svc} }

// Register mounts the documents API under /api/docs. authRequired guards the
// mutating endpoints; pass nil to leave them open (standalone/dev mode).
func (h *Handler) Register(r *gin.Engine, authRequired gin.HandlerFunc) {
	if authRequired == nil {
		authRequired = func(c *gin.Context) { c.Next() }
	}
	api := r.Group("/api/docs")
	api.GET("", h.List)
	api.GET("/:slug", h.Get)
	api.POST("", authRequired, h.Create)
	api.PATCH("/:id", authRequired, h.Update)
	api.DELETE("/:id", authRequired, h.Delete)
}

// List returns document metadata; ?include=content adds each body (downloaded
// best effort, empty on per-document failure).
func (h *Handler) List(c *gin.Context) {
	if c.Query("include") == "content" {
		out, err := h.svc.ListWithContent(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
		return
	}
	out, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Get(c *gin.Context) {
	doc, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Create accepts multipart form data: title, content (or an mdFile upload) and
// any number of image_* file parts.
func (h *Handler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "error": err.Error()})
		return
	}

	title := firstValue(form, "title")
	content := firstValue(form, "content")
	if content == "" {
		if md, ok := firstFile(form, "mdFile"); ok {
			data, err := readFile(md)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "error": err.Error()})
				return
			}
			content = string(data)
		}
	}

	images, err := imageParts(form)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "error": err.Error()})
		return
	}

	res, err := h.svc.Create(c.Request.Context(), title, content, images)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         res.Doc.ID,
		"slug":       res.Doc.Slug,
		"title":      res.Doc.Title,
		"filePath":   res.Doc.FilePath,
		"createdAt":  res.Doc.CreatedAt,
		"updatedAt":  res.Doc.UpdatedAt,
		"imageCount": res.ImageCount,
	})
}

// Update accepts the same multipart shape as Create; every field is optional
// and omitted fields are left unchanged.
func (h *Handler) Update(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "error": err.Error()})
		return
	}

	var title, content *string
	if vs, ok := form.Value["title"]; ok && len(vs) > 0 {
		title = &vs[0]
	}
	if vs, ok := form.Value["content"]; ok && len(vs) > 0 {
		content = &vs[0]
	} else if md, ok := firstFile(form, "mdFile"); ok {
		data, err := readFile(md)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "error": err.Error()})
			return
		}
		s := string(data)
		content = &s
	}

	images, err := imageParts(form)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "error": err.Error()})
		return
	}

	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), title, content, images)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps service errors onto the wire taxonomy: validation 400,
// conflict 409, not-found 404, anything upstream 500 with the message passed
// through unmasked.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTitleRequired) || errors.Is(err, service.ErrContentRequired):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "error": err.Error()})
	case errors.Is(err, service.ErrDuplicateSlug):
		c.JSON(http.StatusConflict, gin.H{"code": "conflict", "error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": "upstream", "error": err.Error()})
	}
}

func firstValue(form *multipart.Form, key string) string {
	if vs, ok := form.Value[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func firstFile(form *multipart.Form, key string) (*multipart.FileHeader, bool) {
	if fs, ok := form.File[key]; ok && len(fs) > 0 {
		return fs[0], true
	}
	return nil, false
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// imageParts collects every image_* file part from the form.
func imageParts(form *multipart.Form) ([]service.Image, error) {
	var images []service.Image
	for key, headers := range form.File {
		if !strings.HasPrefix(key, "image_") {
			continue
		}
		for _, fh := range headers {
			data, err := readFile(fh)
			if err != nil {
				return nil, err
			}
			images = append(images, service.Image{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}
	return images, nil
}
