package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"railbite/internal/service"
)

func (h *handler) listStaff(c *gin.Context) {
	staff, err := h.svc.Staff.ListAll(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, staff)
}

func (h *handler) availableStaff(c *gin.Context) {
	staff, err := h.svc.Staff.ListAvailable(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, staff)
}

func (h *handler) createStaff(c *gin.Context) {
	var in service.CreateStaffInput
	if !bindJSON(c, &in) {
		return
	}
	st, err := h.svc.Staff.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, st)
}

func (h *handler) deleteStaff(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Staff.Delete(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "delivery staff deleted")
}

func (h *handler) staffProfile(c *gin.Context) {
	st, err := h.svc.Staff.Profile(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, st)
}

type availabilityRequest struct {
	Status string `json:"status" binding:"required,oneof=available offline"`
}

func (h *handler) setAvailability(c *gin.Context) {
	var in availabilityRequest
	if !bindJSON(c, &in) {
		return
	}
	st, err := h.svc.Staff.SetAvailability(c.Request.Context(), principal(c), in.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, st)
}
