package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"notify-gateway/inbox"
	"notify-gateway/models"
	"notify-gateway/session"
	"notify-gateway/utils"
)

// SocketManager is the slice of the connection manager the HTTP facade
// drives.
type SocketManager interface {
	Connect()
	Disconnect()
	IsConnected() bool
	State() models.ConnectionState
}

// APIHandler serves the dashboard-facing API: the notification inbox, the
// socket lifecycle, and the session handoff from the login flow.
type APIHandler struct {
	inbox   *inbox.Inbox
	manager SocketManager
	store   session.Store
	logger  *slog.Logger
}

func NewAPIHandler(ib *inbox.Inbox, manager SocketManager, store session.Store, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		inbox:   ib,
		manager: manager,
		store:   store,
		logger:  logger.With("component", "api_handler"),
	}
}

// RegisterRoutes mounts all routes under /api/v1.
func (h *APIHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.GET("/health", h.HealthCheck)

	api.GET("/notifications", h.ListNotifications)
	api.POST("/notifications/:id/read", h.MarkNotificationRead)
	api.POST("/notifications/read-all", h.MarkAllNotificationsRead)
	api.DELETE("/notifications/:id", h.RemoveNotification)
	api.DELETE("/notifications", h.ClearNotifications)

	api.GET("/socket/status", h.SocketStatus)
	api.POST("/socket/connect", h.ConnectSocket)
	api.POST("/socket/disconnect", h.DisconnectSocket)

	api.PUT("/session", h.PutSession)
	api.DELETE("/session", h.DeleteSession)
}

// HealthCheck provides a simple health status of the service.
func (h *APIHandler) HealthCheck(c echo.Context) error {
	data := map[string]interface{}{
		"service":   "notify-gateway",
		"connected": h.manager.IsConnected(),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Service is healthy", data))
}

// ListNotifications returns the inbox, newest first, with the unread count.
func (h *APIHandler) ListNotifications(c echo.Context) error {
	notifications := h.inbox.Notifications()
	data := map[string]interface{}{
		"notifications": notifications,
		"count":         len(notifications),
		"unreadCount":   h.inbox.UnreadCount(),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Notifications retrieved successfully", data))
}

// MarkNotificationRead marks one notification as read.
func (h *APIHandler) MarkNotificationRead(c echo.Context) error {
	id := c.Param("id")
	if !h.inbox.MarkRead(id) {
		return utils.NewNotFoundError("Notification not found")
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Notification marked as read", nil))
}

// MarkAllNotificationsRead marks every notification as read.
func (h *APIHandler) MarkAllNotificationsRead(c echo.Context) error {
	h.inbox.MarkAllRead()
	return c.JSON(http.StatusOK, utils.SuccessResponse("All notifications marked as read", nil))
}

// RemoveNotification deletes one notification.
func (h *APIHandler) RemoveNotification(c echo.Context) error {
	id := c.Param("id")
	if !h.inbox.Remove(id) {
		return utils.NewNotFoundError("Notification not found")
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Notification removed", nil))
}

// ClearNotifications empties the inbox.
func (h *APIHandler) ClearNotifications(c echo.Context) error {
	h.inbox.Clear()
	return c.JSON(http.StatusOK, utils.SuccessResponse("Notifications cleared", nil))
}

// SocketStatus reports the connection state.
func (h *APIHandler) SocketStatus(c echo.Context) error {
	data := map[string]interface{}{
		"state":     h.manager.State().String(),
		"connected": h.manager.IsConnected(),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Socket status retrieved successfully", data))
}

// ConnectSocket schedules a connection attempt. Always succeeds: whether
// the socket actually comes up is deliberately invisible here.
func (h *APIHandler) ConnectSocket(c echo.Context) error {
	h.manager.Connect()
	return c.JSON(http.StatusAccepted, utils.SuccessResponse("Socket connection requested", nil))
}

// DisconnectSocket tears the connection down and clears the inbox.
func (h *APIHandler) DisconnectSocket(c echo.Context) error {
	h.manager.Disconnect()
	return c.JSON(http.StatusOK, utils.SuccessResponse("Socket disconnected", nil))
}
