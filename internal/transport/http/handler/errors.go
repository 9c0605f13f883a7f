package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gopherai-docchat/internal/app"
	"gopherai-docchat/internal/transport/http/response"
)

// respondError maps service errors onto the envelope. Server-side failures
// are attached to the gin context so the access log carries the cause.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrMissingDocument):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, "document for this session no longer exists")
	case errors.Is(err, app.ErrAnswerPipeline):
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, response.CodeAnswerPipeline, "failed to generate answer")
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, app.ErrTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, err.Error())
	case errors.Is(err, app.ErrUnsupportedFormat):
		response.Error(c, http.StatusUnsupportedMediaType, response.CodeUnsupportedFormat, err.Error())
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrRetrieval):
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, response.CodeRetrieval, "embedding service failed")
	case errors.Is(err, app.ErrStoreWrite):
		_ = c.Error(err)
		response.Error(c, http.StatusServiceUnavailable, response.CodeStoreWrite, "storage write failed")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
