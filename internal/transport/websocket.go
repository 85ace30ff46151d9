package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/blockfall/internal/worker"
)

const writeWait = 5 * time.Second

// WebSocketHandler upgrades each request and serves one worker per
// connection. Every text frame from the client is a command; every
// message is sent back as one text frame.
type WebSocketHandler struct {
	opts     worker.Options
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler returns a handler that creates workers with opts.
func NewWebSocketHandler(opts worker.Options, logger *log.Logger) *WebSocketHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &WebSocketHandler{
		opts:   opts,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxFrameSize)

	logger := h.logger.With("remote", r.RemoteAddr)
	logger.Info("client connected")
	defer logger.Info("client disconnected")

	opts := h.opts
	if opts.Logger == nil {
		opts.Logger = logger
	}
	wk := worker.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go wk.Run(ctx)

	go func() {
		defer wk.Stop()
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warn("read failed", "err", err)
				}
				return
			}
			if kind != websocket.TextMessage {
				continue
			}
			var cmd worker.Command
			if err := json.Unmarshal(data, &cmd); err != nil {
				logger.Warn("dropping malformed command", "err", err)
				continue
			}
			wk.Send(cmd)
		}
	}()

	for m := range wk.Messages() {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			logger.Warn("write failed", "err", err)
			cancel()
			// Let the worker wind down; its channel closes once Run returns.
			for range wk.Messages() {
			}
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
