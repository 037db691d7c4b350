package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/atul-1602/memecraft/observability"
)

// Telemetry opens an http.request span per request and records request
// metrics under the matched route template. metrics may be nil.
func Telemetry(serviceName string, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, op := observability.StartOperation(c.Request.Context(), serviceName,
			c.Request.Method+" "+route, c.GetHeader(HeaderRequestID), metrics)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		var err error
		if last := c.Errors.Last(); last != nil {
			err = last.Err
		} else if status >= http.StatusInternalServerError {
			err = statusError(status)
		}
		op.End(ctx, strconv.Itoa(status), err)
	}
}

type statusError int

func (e statusError) Error() string { return http.StatusText(int(e)) }
