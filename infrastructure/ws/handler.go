// Package ws exposes the room session coordinator over HTTP: the websocket
// upgrade endpoint for collaborators and the control API consumed by the
// room-membership layer (presence query, forced eviction).
package ws

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"stowroom/auth"
	"stowroom/domain"
	"stowroom/observability"
	"stowroom/realtime"
)

type Handler struct {
	directory    *realtime.Directory
	monitoring   *observability.MonitoringManager
	log          *slog.Logger
	secret       []byte
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

func NewHandler(directory *realtime.Directory, monitoring *observability.MonitoringManager,
	log *slog.Logger, secret []byte, writeTimeout time.Duration) *Handler {
	return &Handler{
		directory:    directory,
		monitoring:   monitoring,
		log:          log,
		secret:       secret,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Cross-origin policy is enforced by the fronting gateway.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) Register(router *gin.Engine) {
	router.GET("/healthz", h.Health)
	router.GET("/rooms/:roomId/ws", h.Join)
	router.GET("/rooms/:roomId/presence", h.Presence)
	router.POST("/rooms/:roomId/kick", h.Kick)
}

// Join authenticates the upgrade request, admits the connection and runs
// its read pump until the client goes away.
func (h *Handler) Join(c *gin.Context) {
	roomID := c.Param("roomId")

	identity, err := h.resolveIdentity(c)
	if err != nil {
		// Missing or unreadable identity is the one fatal admission error:
		// the upgrade is rejected and no connection is ever created.
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err := auth.ValidateIdentity(identity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coordinator, err := h.directory.Room(roomID)
	if err != nil {
		h.log.Error("Room coordinator unavailable", "room", roomID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room unavailable"})
		return
	}

	socket, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.Debug("Websocket upgrade failed", "room", roomID, "err", err)
		return
	}

	conn := NewConn(socket, h.writeTimeout)
	meta, err := coordinator.Admit(conn, identity)
	if err != nil {
		h.log.Error("Admission failed", "room", roomID, "user", identity.UserID, "err", err)
		_ = conn.Close(websocket.CloseInternalServerErr, "admission failed")
		return
	}

	h.readPump(coordinator, conn, socket, meta.ConnectionID)
}

func (h *Handler) readPump(coordinator *realtime.Coordinator, conn *Conn,
	socket *websocket.Conn, connectionID string) {
	defer func() {
		coordinator.HandleClose(conn)
		_ = socket.Close()
	}()

	for {
		kind, data, err := socket.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("Connection read ended",
					"room", coordinator.RoomID(), "connection", connectionID, "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		coordinator.HandleMessage(conn, data)
	}
}

// Presence lists the distinct users currently connected to a room, one
// entry per user regardless of how many tabs they hold.
func (h *Handler) Presence(c *gin.Context) {
	coordinator, err := h.directory.Room(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": coordinator.Present()})
}

type kickRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// Kick is the membership layer's one-shot eviction hook: it notifies and
// closes every connection of the user, then the remaining room learns the
// user left. Evicting an absent user succeeds with zero closed connections.
func (h *Handler) Kick(c *gin.Context) {
	requestID := uuid.NewString()
	roomID := c.Param("roomId")

	var req kickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	coordinator, err := h.directory.Room(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room unavailable"})
		return
	}
	evicted, err := coordinator.Evict(req.UserID)
	if err != nil {
		h.log.Error("Eviction failed", "request", requestID, "room", roomID,
			"user", req.UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "eviction failed"})
		return
	}

	h.log.Info("Eviction processed", "request", requestID, "room", roomID,
		"user", req.UserID, "connections", evicted)
	c.JSON(http.StatusOK, gin.H{"evicted": evicted})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitoring.GetLatest())
}

// resolveIdentity decodes the room token minted by the REST layer. The
// token rides the query string (browsers cannot set headers on websocket
// upgrades) with an Authorization header fallback for the control plane.
func (h *Handler) resolveIdentity(c *gin.Context) (identity domain.Identity, err error) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	claims, err := auth.ValidateToken(token, h.secret)
	if err != nil {
		return identity, err
	}
	return auth.IdentityFromClaims(claims)
}
