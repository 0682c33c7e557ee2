package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/philly/devtools-relay/internal/adapters/api"
	"github.com/philly/devtools-relay/internal/devtools/application"
	"github.com/philly/devtools-relay/internal/platform/apperror"
	"github.com/philly/devtools-relay/internal/relay"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamReadLimit  = 1 << 20
	streamOutbox     = 64
)

// StreamHandler attaches websocket clients to the relay
type StreamHandler struct {
	*BaseHandler
	service  *application.Service
	upgrader websocket.Upgrader

	closing   chan struct{}
	closeOnce sync.Once
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(base *BaseHandler, service *application.Service) *StreamHandler {
	return &StreamHandler{
		BaseHandler: base,
		service:     service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Extension pages connect from chrome-extension:// origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		closing: make(chan struct{}),
	}
}

// Close ends every open stream with a going-away close frame. Hijacked
// connections are not tracked by http.Server.Shutdown, so the server calls
// this from RegisterOnShutdown.
func (h *StreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// StreamMessages subscribes the caller to key and pumps messages both ways.
// Key is a topic, or "@name" to register the socket as the connection name.
// Frames read from the socket are published like POST /messages.
func (h *StreamHandler) StreamMessages(w http.ResponseWriter, r *http.Request, params api.StreamMessagesParams) {
	outbox := make(chan relay.Message, streamOutbox)

	// Subscribe before upgrading so that a bad key or a taken name is still
	// an ordinary HTTP error response.
	unsubscribe, err := h.service.Subscribe(params.Key, func(msg relay.Message) {
		select {
		case outbox <- msg:
		default:
			h.logger.Warn(context.Background(), "stream outbox full, dropping message",
				"key", params.Key,
				"message", msg.Message,
			)
		}
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn(r.Context(), "websocket upgrade failed", "error", err, "key", params.Key)
		return
	}
	defer conn.Close()

	ctx := context.WithoutCancel(r.Context())
	h.logger.Info(ctx, "stream attached", "key", params.Key, "remote_addr", r.RemoteAddr)
	defer h.logger.Info(ctx, "stream detached", "key", params.Key)

	failures := make(chan api.Error, streamOutbox)
	done := make(chan struct{})
	go h.readPump(ctx, conn, params.Key, failures, done)

	h.writePump(ctx, conn, outbox, failures, done)
}

func (h *StreamHandler) readPump(ctx context.Context, conn *websocket.Conn, key string, failures chan<- api.Error, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn(ctx, "stream read failed", "error", err, "key", key)
			}
			return
		}

		var msg api.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reportFailure(failures, apperror.Wrap(err, apperror.CodeValidationFailed, apperror.BusinessCodeInvalidBody, "Invalid message frame"))
			continue
		}

		if _, err := h.service.Publish(ctx, apiMessageToRelay(msg)); err != nil {
			h.reportFailure(failures, err)
		}
	}
}

func (h *StreamHandler) reportFailure(failures chan<- api.Error, err error) {
	appErr := apperror.From(err)
	frame := api.Error{Error: string(appErr.Code), Message: appErr.Message}
	if appErr.BusinessCode != "" {
		bizCode := string(appErr.BusinessCode)
		frame.BusinessCode = &bizCode
	}

	select {
	case failures <- frame:
	default:
	}
}

func (h *StreamHandler) writePump(ctx context.Context, conn *websocket.Conn, outbox <-chan relay.Message, failures <-chan api.Error, done <-chan struct{}) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		var frame api.StreamFrame

		select {
		case <-done:
			return

		case <-h.closing:
			closeFrame := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, closeFrame, time.Now().Add(streamWriteWait))
			return

		case msg := <-outbox:
			out := relayMessageToAPI(msg)
			frame = api.StreamFrame{Type: api.StreamFrameMessage, Message: &out}

		case failure := <-failures:
			frame = api.StreamFrame{Type: api.StreamFrameError, Error: &failure}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				h.logger.Debug(ctx, "stream ping failed", "error", err)
				return
			}
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Warn(ctx, "stream write failed", "error", err)
			return
		}
	}
}
