package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/feathr-social/backend/internal/models"
	"github.com/feathr-social/backend/internal/push"
	"github.com/feathr-social/backend/internal/repositories"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// StreamHandler upgrades notification stream connections. The stream
// token, not a JWT, is the credential here: the connection is accepted
// only if the supplied token is the account's current one and has not
// expired.
type StreamHandler struct {
	streamRepository repositories.StreamRepository
	hub              *push.Hub
	now              func() time.Time
}

// NewStreamHandler creates a new StreamHandler. now is the clock used
// for the connect-time expiry check; pass time.Now outside of tests.
func NewStreamHandler(streamRepo repositories.StreamRepository, hub *push.Hub, now func() time.Time) *StreamHandler {
	return &StreamHandler{streamRepository: streamRepo, hub: hub, now: now}
}

// RegisterStreamRoutes registers the websocket endpoint
func (h *StreamHandler) RegisterStreamRoutes(e *echo.Echo) {
	e.GET("/ws/notifications/:account_id", h.Connect)
}

// Connect validates the (account, token) pair, upgrades the connection
// and registers it with the hub. The read loop only drains client
// frames; its exit is the disconnect signal, which unregisters the
// connection and clears the stream token.
func (h *StreamHandler) Connect(c echo.Context) error {
	accountID, err := strconv.ParseUint(c.Param("account_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid account ID")
	}
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing stream token")
	}

	stream, err := h.streamRepository.GetByAccount(uint(accountID))
	if err != nil || stream.Token != token {
		return echo.NewHTTPError(http.StatusForbidden, "Invalid stream token")
	}
	if stream.Expired(h.now()) {
		return echo.NewHTTPError(http.StatusForbidden, "Stream token expired")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	key := models.StreamKey(uint(accountID), token)
	h.hub.Register(key, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	conn.Close()
	h.hub.Unregister(key, conn)
	h.streamRepository.ClearToken(uint(accountID), token)
	return nil
}
