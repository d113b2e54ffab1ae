package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/telemetry"
	"github.com/uniconnect/backend/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	chatbotStreamPath  = "/stream_chat"
	chatbotUnavailable = "Failed to connect to AI service"
)

func newChatbotBreaker() *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "chatbot",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("Chatbot circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Chat forwards a message to the chatbot service and streams its reply
// POST /api/chat
func (h *Handlers) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, apperrors.MissingField("message"))
		return
	}
	if h.chatbotURL == "" {
		util.RespondInternalError(c, chatbotUnavailable)
		return
	}

	ctx, span := telemetry.TraceExternalCall(c.Request.Context(), "chatbot", "stream_chat",
		attribute.Int("chat.message_length", len(req.Message)),
	)
	defer span.End()

	resp, err := h.chatbotBreaker.Execute(func() (*http.Response, error) {
		body, err := json.Marshal(map[string]string{"message": req.Message})
		if err != nil {
			return nil, err
		}
		upstream, err := http.NewRequestWithContext(ctx, http.MethodPost,
			strings.TrimRight(h.chatbotURL, "/")+chatbotStreamPath, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		upstream.Header.Set("Content-Type", "application/json")

		resp, err := h.chatbotClient.Do(upstream)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("chatbot returned status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		telemetry.RecordExternalCallError(span, err, 0)
		logger.Log.Error("AI service error", zap.Error(err))
		util.RespondInternalError(c, chatbotUnavailable)
		return
	}
	defer resp.Body.Close()
	telemetry.RecordExternalCallSuccess(span, resp.StatusCode)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Accel-Buffering", "no")
	c.Status(resp.StatusCode)

	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := c.Writer.Write(buf[:n]); err != nil {
				return
			}
			c.Writer.Flush()
		}
		if readErr != nil {
			if readErr != io.EOF {
				logger.Log.Warn("Chatbot stream interrupted", zap.Error(readErr))
			}
			return
		}
	}
}
