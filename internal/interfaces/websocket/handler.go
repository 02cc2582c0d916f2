// internal/interfaces/websocket/handler.go
package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sagaline/ecommerce-backend/internal/pkg/auth"
	"github.com/sirupsen/logrus"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
)

// TokenValidator verifies access tokens presented on upgrade
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

// Handler upgrades authenticated requests and registers them with the hub
type Handler struct {
	hub      *Hub
	tokens   TokenValidator
	upgrader websocket.Upgrader
	logger   logrus.FieldLogger
}

// NewHandler creates the upgrade handler. An empty origin list or "*" allows any origin.
func NewHandler(hub *Hub, tokens TokenValidator, allowedOrigins []string, logger logrus.FieldLogger) *Handler {
	return &Handler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// Serve handles GET /api/notifications/ws
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
		return
	}

	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response
		h.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	client := h.hub.Register(claims.UserID, conn)
	go h.keepAlive(client)
	h.readLoop(client)
}

// readLoop discards inbound frames and returns when the peer goes away
func (h *Handler) readLoop(client *Client) {
	defer h.hub.Unregister(client)

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).WithField("user_id", client.userID).Debug("websocket closed unexpectedly")
			}
			return
		}
	}
}

func (h *Handler) keepAlive(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := client.writeControl(websocket.PingMessage); err != nil {
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}
