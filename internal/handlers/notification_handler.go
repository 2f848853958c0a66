package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/feathr-social/backend/internal/models"
	"github.com/feathr-social/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// NotificationHandler serves persisted notifications and stream token
// minting
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	streamRepository       repositories.StreamRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, streamRepo repositories.StreamRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		streamRepository:       streamRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.ListNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.POST("/notifications/stream", h.MintStreamToken)
}

// ListNotifications returns the caller's notifications at or before the
// reference timestamp, newest first, at most 16
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	before := time.Now()
	if ts := c.QueryParam("timestamp"); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "timestamp must be RFC3339")
		}
		before = parsed
	}

	notifications, err := h.notificationRepository.ListByAccount(accountID, before, repositories.FeedPageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	payloads := make([]models.NotificationPayload, 0, len(notifications))
	for i := range notifications {
		payloads = append(payloads, SerializeNotification(&notifications[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": payloads})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	count, err := h.notificationRepository.GetUnreadCount(accountID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.notificationRepository.MarkAsRead(uint(notifID), accountID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	if err := h.notificationRepository.MarkAllAsRead(accountID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MintStreamToken issues a fresh stream token for the caller,
// overwriting and thereby invalidating any previous one
func (h *NotificationHandler) MintStreamToken(c echo.Context) error {
	accountID := getAccountIDFromContext(c)

	token := uuid.NewString()
	if err := h.streamRepository.Mint(accountID, token, time.Now()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":              token,
		"expires_in_seconds": int(models.StreamTokenTTL.Seconds()),
	})
}
