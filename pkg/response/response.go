package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes carried in ErrorInfo.Code.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeValidation   = "VALIDATION_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// requestIDHeader is set by the request logging middleware in pkg/log.
const requestIDHeader = "X-Request-ID"

// Response is the envelope every REST endpoint answers with. RequestID
// echoes the id the request was logged under so clients can quote it.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func envelope(c *gin.Context) Response {
	return Response{RequestID: c.Writer.Header().Get(requestIDHeader)}
}

func ok(c *gin.Context, status int, data interface{}) {
	r := envelope(c)
	r.Success = true
	r.Data = data
	c.JSON(status, r)
}

func Success(c *gin.Context, data interface{}) { ok(c, http.StatusOK, data) }

func Created(c *gin.Context, data interface{}) { ok(c, http.StatusCreated, data) }

// Accepted acknowledges work that continues after the response, such as
// chat-event delivery.
func Accepted(c *gin.Context, data interface{}) { ok(c, http.StatusAccepted, data) }

// Error writes an error envelope and aborts the remaining handlers, so
// middleware can reject a request with a single call.
func Error(c *gin.Context, statusCode int, code, message string) {
	r := envelope(c)
	r.Error = &ErrorInfo{Code: code, Message: message}
	c.AbortWithStatusJSON(statusCode, r)
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, message)
}

// ValidationError reports a well-formed body that fails domain validation.
func ValidationError(c *gin.Context, message string) {
	Error(c, http.StatusUnprocessableEntity, CodeValidation, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeInternal, message)
}
