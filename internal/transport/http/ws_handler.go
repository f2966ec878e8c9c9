package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/schoolchat/relay-server/internal/auth"
	"github.com/schoolchat/relay-server/internal/proto"
	"github.com/schoolchat/relay-server/internal/relay"
)

// WSHandler upgrades HTTP connections and bridges them to the relay.
type WSHandler struct {
	relay *relay.Service
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(relayService *relay.Service, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{relay: relayService, log: logger}
}

// Handle serves one WebSocket session.
func (h *WSHandler) Handle(c *gin.Context) {
	credential := extractCredential(c)
	if credential == "" {
		c.JSON(stdhttp.StatusUnauthorized, ErrorResponse{Error: "missing credential"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		Subprotocols:       []string{proto.Subprotocol()},
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	err = h.relay.HandleStream(c.Request.Context(), credential, &wsStream{conn: conn})

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrMissingCredential),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrUnknownPrincipal):
		status = websocket.StatusPolicyViolation
		reason = "unauthorized"
		h.log.Warn().Err(err).Msg("ws authentication failed")
	default:
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				err = nil
			}
		}
		if err != nil && status == websocket.StatusNormalClosure {
			status = websocket.StatusInternalError
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// extractCredential pulls the bearer token from the Authorization
// header, or from the token query parameter since browser WebSocket
// clients cannot set headers.
func extractCredential(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return authHeader
	}
	return c.Query("token")
}

// wsStream adapts a websocket connection to relay.Stream.
type wsStream struct {
	conn *websocket.Conn
}

func (s *wsStream) Recv(ctx context.Context) (relay.Message, error) {
	var wire proto.ChatMessage
	if err := wsjson.Read(ctx, s.conn, &wire); err != nil {
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
			websocket.CloseStatus(err) == websocket.StatusGoingAway {
			return relay.Message{}, io.EOF
		}
		return relay.Message{}, err
	}

	return relay.Message{
		Sender:   relay.Identity(wire.Sender),
		Receiver: relay.Identity(wire.Receiver),
		Text:     wire.Text,
	}, nil
}

func (s *wsStream) Send(ctx context.Context, msg relay.Message) error {
	return wsjson.Write(ctx, s.conn, proto.ChatMessage{
		Sender:   int64(msg.Sender),
		Receiver: int64(msg.Receiver),
		Text:     msg.Text,
	})
}
