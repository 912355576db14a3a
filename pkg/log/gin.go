package log

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// quietPaths are logged at debug so load balancer health checks do not flood the output.
var quietPaths = map[string]bool{
	"/health": true,
}

// GinMiddleware tags each request with a request id (taken from X-Request-ID
// or generated), stores a child logger in the request context and logs the
// outcome once the handler chain returns.
//
// Websocket upgrades are logged when the socket closes, so their latency is
// the lifetime of the connection.
func GinMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		child := logger.With().
			Str(FieldRequestID, reqID).
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, c.Request.URL.Path).
			Str(FieldClientIP, c.ClientIP()).
			Logger()

		c.Header(headerRequestID, reqID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), child))

		c.Next()

		status := c.Writer.Status()
		evt := child.WithLevel(levelFor(c.Request.URL.Path, status)).
			Int(FieldStatus, status).
			Int64(FieldLatency, time.Since(start).Milliseconds())

		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			evt = evt.Bool("websocket", true)
		}
		// Actor keys are set by the auth middleware further down the chain.
		if id := c.GetInt64(FieldUserID); id != 0 {
			evt = evt.Int64(FieldUserID, id)
		}
		if name := c.GetString(FieldUsername); name != "" {
			evt = evt.Str(FieldUsername, name)
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}

		evt.Msg("request completed")
	}
}

func levelFor(path string, status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	case quietPaths[path]:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
