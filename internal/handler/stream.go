package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"quickref/internal/handler/sse"
	"quickref/internal/service/refresh"
)

// StreamHandler pushes refresh events to connected viewers over SSE.
type StreamHandler struct {
	bus    *refresh.Bus
	config *sse.Config
	logger *slog.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(bus *refresh.Bus, config *sse.Config, logger *slog.Logger) *StreamHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &StreamHandler{
		bus:    bus,
		config: config,
		logger: logger,
	}
}

// Stream holds the connection open until the client goes away, writing
// "event: refresh" when the catalog changed and a keep-alive comment on
// every idle heartbeat
// GET /stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	writer := sse.NewWriter(w)
	if err := writer.WriteRetry(h.config.Retry); err != nil {
		h.logger.Warn("SSE handshake failed", "error", err)
		return
	}

	err := h.bus.Stream(r.Context(), func(ev refresh.EventType) error {
		if ev == refresh.EventRefresh {
			return writer.WriteEvent("refresh", "true")
		}
		return writer.WriteKeepAlive()
	})

	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Debug("SSE stream ended")
	default:
		h.logger.Info("SSE client dropped", "error", err)
	}
}
