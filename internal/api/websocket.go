package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"qsim/internal/backtest"
	"qsim/internal/errors"
	"qsim/internal/logger"
)

const equityBatchSize = 100

// Message is the envelope for WebSocket frames.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time time.Time   `json:"time"`
}

// WebSocketHandler streams backtest progress over a WebSocket connection.
// The client sends one backtest config frame; the server replies with the
// equity curve in batches followed by the full result.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	engine   *backtest.Engine
	log      logger.Logger
}

// NewWebSocketHandler creates the streaming handler.
func NewWebSocketHandler(engine *backtest.Engine, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		engine: engine,
		log:    log,
	}
}

// BacktestStream handles one streamed backtest run.
func (h *WebSocketHandler) BacktestStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var cfg backtest.Config
	if err := conn.ReadJSON(&cfg); err != nil {
		h.writeError(conn, "invalid backtest config")
		return
	}

	result, err := h.engine.Run(c.Request.Context(), &cfg)
	if err != nil {
		msg := "backtest failed"
		if appErr := errors.GetAppError(err); appErr != nil {
			msg = appErr.Message
		}
		h.writeError(conn, msg)
		return
	}

	for start := 0; start < len(result.EquityCurve); start += equityBatchSize {
		end := start + equityBatchSize
		if end > len(result.EquityCurve) {
			end = len(result.EquityCurve)
		}
		if err := h.write(conn, "equity", result.EquityCurve[start:end]); err != nil {
			h.log.Warn("websocket write failed", "error", err)
			return
		}
	}

	if err := h.write(conn, "result", result); err != nil {
		h.log.Warn("websocket write failed", "error", err)
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, msgType string, data interface{}) error {
	return conn.WriteJSON(Message{Type: msgType, Data: data, Time: time.Now().UTC()})
}

func (h *WebSocketHandler) writeError(conn *websocket.Conn, msg string) {
	_ = h.write(conn, "error", gin.H{"error": msg})
}
