package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	pkgAuth "f1-penca/pkg/auth"
	"f1-penca/pkg/events"
	"f1-penca/pkg/logger"
	"f1-penca/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// UserChecker confirms the token subject still exists.
type UserChecker interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

type Handler struct {
	hub   *Hub
	users UserChecker
}

func NewHandler(hub *Hub, users UserChecker) *Handler {
	return &Handler{hub: hub, users: users}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the token is the only gate
	},
}

// HandleEvents streams bet and sync events to an authenticated user.
func (h *Handler) HandleEvents(c *gin.Context) {
	token, err := getTokenFromRequest(c)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	claims, err := pkgAuth.ParseUserToken(token)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	userID := claims.SubjectID
	if ok, err := h.users.Exists(c.Request.Context(), userID); err != nil || !ok {
		response.Fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("New WebSocket connection", zap.Int64("userID", userID))

	client := newClient(conn, userID, h.hub)
	client.run()
}

func getTokenFromRequest(c *gin.Context) (string, error) {
	token := strings.TrimSpace(c.Query("token"))
	if token != "" {
		return token, nil
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
			if token != "" {
				return token, nil
			}
		}
	}
	return "", errors.New("missing token")
}

type client struct {
	conn      *websocket.Conn
	userID    int64
	hub       *Hub
	sub       *Subscription
	done      chan struct{}
	pingEvery time.Duration
}

func newClient(conn *websocket.Conn, userID int64, hub *Hub) *client {
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	return &client{
		conn:      conn,
		userID:    userID,
		hub:       hub,
		sub:       hub.Subscribe(userID),
		done:      make(chan struct{}),
		pingEvery: 25 * time.Second,
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

// readPump only drains control frames; the stream is server to client.
func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.hub.Unsubscribe(c.sub)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			logger.Log.Info("WS read error", zap.Error(err), zap.Int64("userID", c.userID))
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sub.ch:
			if !ok {
				return
			}
			if err := c.write(msg); err != nil {
				logger.Log.Info("WS write error", zap.Error(err), zap.Int64("userID", c.userID))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) write(e events.Event) error {
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(e)
}
