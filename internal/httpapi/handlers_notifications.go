package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"railbite/internal/service"
)

func (h *handler) myNotifications(c *gin.Context) {
	list, err := h.svc.Notifications.ListMine(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

func (h *handler) unreadCount(c *gin.Context) {
	n, err := h.svc.Notifications.UnreadCount(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": n})
}

func (h *handler) markRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Notifications.MarkRead(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "notification marked as read")
}

func (h *handler) markAllRead(c *gin.Context) {
	n, err := h.svc.Notifications.MarkAllRead(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"marked": n})
}

func (h *handler) broadcast(c *gin.Context) {
	var in service.BroadcastInput
	if !bindJSON(c, &in) {
		return
	}
	n, err := h.svc.Notifications.Broadcast(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, n)
}

func (h *handler) deleteNotification(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Notifications.Delete(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "notification deleted")
}
