package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/auth"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/hub"
	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WSHandler upgrades dashboard connections and streams hub events to
// them. The stream is a hint channel only: a dropped or missed frame is
// recovered by the client's next reconciliation poll, never replayed.
type WSHandler struct {
	hub    *hub.Hub
	logger *zap.Logger
}

func NewWSHandler(h *hub.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:    h,
		logger: logger.Named("ws_handler"),
	}
}

// Serve subscribes the authenticated actor to their delivery groups:
// owners join the owners group, workers their business group.
func (h *WSHandler) Serve(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: "unauthorized"})
		return
	}
	groups := hub.GroupsFor(actor)
	if len(groups) == 0 {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "no delivery group for actor", Code: "forbidden"})
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	subID := uuid.NewString()
	sub := h.hub.Subscribe(subID, groups...)
	h.logger.Info("push subscriber connected",
		zap.String("subscriber", subID),
		zap.Strings("groups", groups),
	)

	// Writer: drain hub events onto the socket until either side ends.
	go func() {
		defer func() {
			h.hub.Unsubscribe(subID)
			_ = conn.Close()
		}()
		for {
			select {
			case evt := <-sub.Events():
				data, err := json.Marshal(evt)
				if err != nil {
					h.logger.Error("failed to serialize event", zap.Error(err))
					continue
				}
				if err := wsutil.WriteServerText(conn, data); err != nil {
					return
				}
			case <-sub.Done():
				return
			}
		}
	}()

	// Reader: clients never send data frames; this only notices closes.
	go func() {
		defer h.hub.Unsubscribe(subID)
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				h.logger.Info("push subscriber disconnected", zap.String("subscriber", subID))
				return
			}
		}
	}()
}
