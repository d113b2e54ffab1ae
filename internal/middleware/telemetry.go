package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/util"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware starts a server span per request with otelgin and then
// annotates it once the handler chain has run. Install both handlers in order.
func TracingMiddleware(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{otelgin.Middleware(serviceName), annotateSpan}
}

// annotateSpan runs inside the otelgin span, so the span is still open when
// the downstream handlers return
func annotateSpan(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, 4)
	if userID := c.GetString(util.ContextUserIDKey); userID != "" {
		attrs = append(attrs, attribute.String("user.id", userID))
	}
	if requestID := c.GetString("request_id"); requestID != "" {
		attrs = append(attrs, attribute.String("request.id", requestID))
	}
	if groupID := c.Param("groupId"); groupID != "" {
		attrs = append(attrs, attribute.String("group.id", groupID))
	}
	if status := c.Writer.Header().Get("X-Cache"); status != "" {
		attrs = append(attrs, attribute.String("cache.status", status))
	}
	span.SetAttributes(attrs...)

	if last := c.Errors.Last(); last != nil {
		span.RecordError(last.Err)
		span.SetStatus(codes.Error, last.Error())
	}
}
