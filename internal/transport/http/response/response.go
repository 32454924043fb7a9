package response

import "github.com/gin-gonic/gin"

const (
	KindBadRequest   = "bad_request"
	KindUnauthorized = "unauthorized"
	KindInternal     = "internal"
)

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse keeps the "error" key that browser clients read, plus a machine readable kind.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func Message(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, MessageResponse{Message: message})
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Error(c *gin.Context, httpStatus int, kind, message string) {
	c.JSON(httpStatus, ErrorResponse{
		Error: message,
		Kind:  kind,
	})
}
