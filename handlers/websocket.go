package handlers

import (
	"net/http"

	httpHandler "articles-server/handlers/http"
	"articles-server/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FeedHandler streams article events to logged-in browsers.
type FeedHandler struct {
	mgr      *ws.Manager
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewFeedHandler uses gorilla's default same-origin check.
func NewFeedHandler(mgr *ws.Manager, log *zap.Logger) *FeedHandler {
	return &FeedHandler{mgr: mgr, log: log}
}

// HandleArticleFeed upgrades GET /ws/articles and keeps the connection
// registered until the client goes away. Incoming messages are ignored.
func (h *FeedHandler) HandleArticleFeed(c *gin.Context) {
	user := httpHandler.Identity(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.New().String()
	h.mgr.Register(connID, conn)
	h.log.Debug("feed subscriber connected", zap.String("conn_id", connID), zap.String("user_id", user.ID))

	defer func() {
		h.mgr.Unregister(connID)
		h.log.Debug("feed subscriber disconnected", zap.String("conn_id", connID))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("feed read error", zap.String("conn_id", connID), zap.Error(err))
			}
			return
		}
	}
}

// Subscribers handles GET /api/v1/feed/subscribers
func (h *FeedHandler) Subscribers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.mgr.Count()})
}
