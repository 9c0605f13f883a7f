package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                = 0
	CodeBadRequest        = 40000
	CodeNotFound          = 40400
	CodeDocumentNotFound  = 40401
	CodeSessionNotFound   = 40402
	CodePayloadTooLarge   = 41300
	CodeUnsupportedFormat = 41500
	CodeInternalServer    = 50000
	CodeRetrieval         = 50201
	CodeAnswerPipeline    = 50202
	CodeStoreWrite        = 50301
	CodeUnavailable       = 50300
)

type APIResponse struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Success: true,
		Code:    CodeOK,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, APIResponse{
		Success: true,
		Code:    CodeOK,
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:  code,
		Error: message,
	})
}
