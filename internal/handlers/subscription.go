package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/middleware"
	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/permissions"
	"github.com/plankhq/plank-api/internal/realtime"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Session cookie auth happens before the upgrade; cross-origin
	// browsers never get this far without it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SubscriptionHandler upgrades clients onto resource snapshot streams.
type SubscriptionHandler struct {
	db     *gorm.DB
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(db *gorm.DB, hub *realtime.Hub, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		db:     db,
		hub:    hub,
		logger: logger,
	}
}

// resolveGroup maps the resource path segment and UUID onto a group
// name, after checking the caller can read the resource. Unknown UUIDs
// and invisible resources are identical not-found errors.
func (h *SubscriptionHandler) resolveGroup(userID uint64, resource, uuid string) (string, error) {
	switch resource {
	case "workspace":
		var workspace models.Workspace
		if err := h.db.Where("uuid = ?", uuid).First(&workspace).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperrors.NotFoundf("workspace %s", uuid)
			}
			return "", err
		}
		if err := permissions.Check(h.db, userID, workspace.ID, permissions.ActionRead, permissions.ResourceWorkspace); err != nil {
			return "", err
		}
		return realtime.WorkspaceGroup(uuid), nil

	case "project":
		var project models.Project
		if err := h.db.Where("uuid = ?", uuid).First(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperrors.NotFoundf("project %s", uuid)
			}
			return "", err
		}
		if err := permissions.Check(h.db, userID, project.WorkspaceID, permissions.ActionRead, permissions.ResourceProject); err != nil {
			return "", err
		}
		return realtime.ProjectGroup(uuid), nil

	case "task":
		var task models.Task
		if err := h.db.Where("uuid = ?", uuid).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperrors.NotFoundf("task %s", uuid)
			}
			return "", err
		}
		if err := permissions.Check(h.db, userID, task.WorkspaceID, permissions.ActionRead, permissions.ResourceTask); err != nil {
			return "", err
		}
		return realtime.TaskGroup(uuid), nil

	default:
		return "", apperrors.NotFoundf("resource %s", resource)
	}
}

// Subscribe upgrades the connection and streams snapshots of the
// addressed resource until the client disconnects or the resource is
// deleted.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	group, err := h.resolveGroup(userID, c.Param("resource"), c.Param("uuid"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(group)
	go h.readLoop(conn, sub)
	h.writeLoop(conn, sub, group)
}

// readLoop drains client frames to detect disconnects. Clients do not
// send application messages; a read error means the socket is gone.
func (h *SubscriptionHandler) readLoop(conn *websocket.Conn, sub *realtime.Subscription) {
	defer sub.Cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop forwards group snapshots to the socket. When the group
// closes the loop sends a close frame so the client knows the resource
// is gone rather than the connection flaky.
func (h *SubscriptionHandler) writeLoop(conn *websocket.Conn, sub *realtime.Subscription, group string) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		sub.Cancel()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = conn.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "resource deleted"),
				)
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("websocket write failed",
					zap.String("group", group),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
