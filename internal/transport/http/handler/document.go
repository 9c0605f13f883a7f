package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"gopherai-docchat/internal/app"
	"gopherai-docchat/internal/transport/http/response"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 1 << 20

type DocumentHandler struct {
	documents *app.DocumentService
	maxBytes  int64
}

func NewDocumentHandler(documents *app.DocumentService, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxBytes: maxBytes}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "file too large")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing multipart field \"file\"")
		return
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "file too large")
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
		return
	}

	result, err := h.documents.Ingest(c.Request.Context(), data, filepath.Base(header.Filename))
	if err != nil {
		respondError(c, err, "upload document failed")
		return
	}
	response.Created(c, result)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.ListDocuments(c.Request.Context())
	if err != nil {
		respondError(c, err, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.documents.DeleteDocument(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": id})
}

// Reconcile is the admin trigger for orphan collection cleanup.
func (h *DocumentHandler) Reconcile(c *gin.Context) {
	report, err := h.documents.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err, "reconcile failed")
		return
	}
	response.OK(c, report)
}
