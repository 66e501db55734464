package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"railbite/internal/service"
)

func (h *handler) register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.svc.Accounts.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, sess)
}

func (h *handler) login(c *gin.Context) {
	var in service.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.svc.Accounts.Login(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, sess)
}

func (h *handler) me(c *gin.Context) {
	u, err := h.svc.Accounts.Me(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

// listMenu is public; ?available=true hides unavailable items.
func (h *handler) listMenu(c *gin.Context) {
	only, _ := strconv.ParseBool(c.Query("available"))
	items, err := h.svc.Menu.List(c.Request.Context(), only)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}

func (h *handler) createMenuItem(c *gin.Context) {
	var in service.MenuItemInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.Menu.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, m)
}

func (h *handler) updateMenuItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.MenuItemInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.Menu.Update(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, m)
}

func (h *handler) deleteMenuItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Menu.Delete(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "menu item deleted")
}

func (h *handler) submitReview(c *gin.Context) {
	var in service.SubmitReviewInput
	if !bindJSON(c, &in) {
		return
	}
	rv, err := h.svc.Reviews.Submit(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, rv)
}

func (h *handler) listReviews(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.svc.Reviews.List(c.Request.Context(), principal(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

func (h *handler) reviewForOrder(c *gin.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	rv, err := h.svc.Reviews.GetForOrder(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, rv)
}

func (h *handler) deleteReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Reviews.Delete(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "review deleted")
}

// salesReport accepts from/to as YYYY-MM-DD or RFC 3339; both are optional.
func (h *handler) salesReport(c *gin.Context) {
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid from")
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid to")
		return
	}
	sum, err := h.svc.Reports.Sales(c.Request.Context(), principal(c), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, sum)
}

func parseTimeParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
