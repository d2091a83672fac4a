package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wakana-code/station-navi-app/internal/models"
	"github.com/wakana-code/station-navi-app/internal/service"
)

// Stream message types
const (
	MessageSamples = "samples" // client → server
	MessageUpdate  = "update"  // server → client
	MessageError   = "error"   // server → client
)

// StreamRequest is a message sent by the recording client.
type StreamRequest struct {
	Type    string                 `json:"type"`
	Samples []models.HeadingSample `json:"samples,omitempty"`
}

// StreamMessage is a message pushed to the recording client.
type StreamMessage struct {
	Type    string                `json:"type"`
	TS      int64                 `json:"ts"`
	Update  *service.IngestResult `json:"update,omitempty"`
	Message string                `json:"message,omitempty"`
}

var (
	errRecordingStopped = errors.New("recording stopped")
	errStreamLagged     = errors.New("stream fell behind")
)

// StreamHandler serves the live recording websocket
type StreamHandler struct {
	service        *service.RecordingService
	originPatterns []string
}

// NewStreamHandler creates a new stream handler. Cross-origin handshakes are
// accepted only from hosts matching originPatterns; same-origin and
// non-browser clients are always accepted.
func NewStreamHandler(service *service.RecordingService, originPatterns []string) *StreamHandler {
	return &StreamHandler{service: service, originPatterns: originPatterns}
}

// Stream handles GET /api/v1/recordings/:id/stream. Samples sent over the
// socket are ingested in order; every ingest result of the session,
// including REST batches, is pushed back. The socket closes normally when
// the recording stops, and with StatusTryAgainLater if the client reads too
// slowly to keep up.
func (h *StreamHandler) Stream(c *gin.Context) {
	id := c.Param("id")
	sub, err := h.service.Subscribe(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer sub.Cancel()

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "component", "stream", "id", id, "error", err)
		return
	}
	defer conn.CloseNow()

	logger := slog.With("component", "stream", "id", id)
	logger.Debug("stream opened")

	// Reads use the request context; the writer owns the normal close.
	reqCtx := c.Request.Context()
	g, ctx := errgroup.WithContext(reqCtx)
	g.Go(func() error { return h.readLoop(reqCtx, conn, id) })
	g.Go(func() error { return writeLoop(ctx, conn, sub) })

	err = g.Wait()
	switch {
	case errors.Is(err, errStreamLagged):
		logger.Warn("stream closed, client fell behind")
	case errors.Is(err, errRecordingStopped):
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
		logger.Debug("stream closed")
	default:
		logger.Debug("stream ended", "error", err)
	}
}

func (h *StreamHandler) readLoop(ctx context.Context, conn *websocket.Conn, id string) error {
	for {
		var req StreamRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			return err
		}

		if req.Type != MessageSamples {
			if err := writeError(ctx, conn, "unknown message type: "+req.Type); err != nil {
				return err
			}
			continue
		}

		// Results reach the client through the subscription.
		_, err := h.service.Ingest(ctx, id, req.Samples)
		if errors.Is(err, service.ErrRecordingClosed) {
			// The writer closes the socket once the subscription ends.
			continue
		}
		if err != nil {
			if err := writeError(ctx, conn, err.Error()); err != nil {
				return err
			}
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, sub *service.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-sub.C:
			if !ok {
				if sub.Lagged() {
					conn.Close(websocket.StatusTryAgainLater, errStreamLagged.Error())
					return errStreamLagged
				}
				conn.Close(websocket.StatusNormalClosure, errRecordingStopped.Error())
				return errRecordingStopped
			}
			msg := StreamMessage{Type: MessageUpdate, TS: time.Now().UnixMilli(), Update: &res}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				return err
			}
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, message string) error {
	return wsjson.Write(ctx, conn, StreamMessage{Type: MessageError, TS: time.Now().UnixMilli(), Message: message})
}
