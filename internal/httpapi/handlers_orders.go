package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"railbite/internal/service"
)

func (h *handler) createOrder(c *gin.Context) {
	var in service.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.svc.Orders.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, o)
}

func (h *handler) myOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListMine(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, orders)
}

func (h *handler) getOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.Orders.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

func (h *handler) getOrderByNumber(c *gin.Context) {
	o, err := h.svc.Orders.GetByNumber(c.Request.Context(), principal(c), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

// listOrders supports ?status=a,b&page_size=N&cursor=C.
func (h *handler) listOrders(c *gin.Context) {
	q := service.ListOrdersQuery{Cursor: c.Query("cursor")}
	for _, raw := range c.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				q.Statuses = append(q.Statuses, s)
			}
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "invalid page_size")
			return
		}
		q.PageSize = n
	}
	page, err := h.svc.Orders.ListAdmin(c.Request.Context(), principal(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, page)
}

func (h *handler) updateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.UpdateStatusInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.svc.Orders.UpdateStatus(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

type assignRequest struct {
	StaffID    int64 `json:"staffId"`
	StaffIDAlt int64 `json:"staff_id"`
}

func (r assignRequest) staff() int64 {
	if r.StaffID != 0 {
		return r.StaffID
	}
	return r.StaffIDAlt
}

func (h *handler) assignStaff(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in assignRequest
	if !bindJSON(c, &in) {
		return
	}
	staffID := in.staff()
	if staffID <= 0 {
		fail(c, http.StatusBadRequest, "staffId is required")
		return
	}
	o, err := h.svc.Orders.AssignStaff(c.Request.Context(), principal(c), id, staffID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

func (h *handler) cancelOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in cancelRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &in) {
		return
	}
	o, err := h.svc.Orders.Cancel(c.Request.Context(), principal(c), id, in.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}

func (h *handler) staffOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListForStaff(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, orders)
}

func (h *handler) progressDelivery(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.ProgressInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.svc.Orders.ProgressDelivery(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, o)
}
