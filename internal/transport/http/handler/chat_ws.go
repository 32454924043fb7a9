package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"courseassist/internal/app"
	"courseassist/internal/logging"
	"courseassist/internal/monitoring"
)

const (
	writeWait = 10 * time.Second
	// MaxFrameBytes caps one inbound frame; larger frames close the connection.
	MaxFrameBytes = 64 << 10
)

type inboundFrame struct {
	Message string `json:"message"`
}

type ChatHandler struct {
	chat     *app.ChatService
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewChatHandler(chat *app.ChatService, metrics *monitoring.Metrics) *ChatHandler {
	return &ChatHandler{
		chat:    chat,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// browser clients are served from any origin, same as the CORS policy
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logging.NewLogger("chat_ws"),
	}
}

// Connect upgrades to a websocket and answers each inbound frame in order until the
// student disconnects.
func (h *ChatHandler) Connect(c *gin.Context) {
	studentID := c.Param("student_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("student_id", studentID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxFrameBytes)

	if h.metrics != nil {
		h.metrics.ChatConnections.Inc()
		defer h.metrics.ChatConnections.Dec()
	}
	h.chat.OpenSession(studentID)
	h.log.Info().Str("student_id", studentID).Msg("student connected")

	ctx := c.Request.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.log.Warn().Err(err).Str("student_id", studentID).Msg("websocket read failed")
			}
			break
		}

		reply := h.chat.HandleMessage(ctx, studentID, DecodeInbound(data))

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			h.log.Warn().Err(err).Str("student_id", studentID).Msg("websocket write failed")
			break
		}
	}
	h.log.Info().Str("student_id", studentID).Msg("student disconnected")
}

// DecodeInbound returns the message field of a frame. Malformed frames and frames without
// a message yield the empty string.
func DecodeInbound(data []byte) string {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return ""
	}
	return frame.Message
}
