// Read-only HTTP handlers.
//
//   - GET  /dashboard   (aggregate counts)
//   - GET  /examples    (curated example roasts)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-roast-backend/internal/utils"
)

// MaxExamples caps the limit query parameter of GET /examples.
const MaxExamples = 50

// GetDashboard godoc
// @ID          getDashboard
// @Summary     Aggregate counts
// @Description Returns the number of roasts, created payments and Twitter shares.
// @Tags        Dashboard
// @Produce     json
//
// @Success     200  {object}  domain.Stats
// @Failure     500  {object}  handlers.ErrorResponse  "Store failure"
// @Router      /dashboard [get]
func (h *Handlers) GetDashboard(c *gin.Context) {
	st, err := h.statsSvc.Stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to load stats")
		return
	}
	ok(c, http.StatusOK, st)
}

// ListExamples godoc
// @ID          listExamples
// @Summary     Curated example roasts
// @Description Lists the showcase roasts. q ranks them by keyword overlap.
// @Tags        Examples
// @Produce     json
//
// @Param       q      query  string  false  "Keyword filter"  example(shopping)
// @Param       limit  query  int     false  "Max results (1-50)"
//
// @Success     200  {array}   domain.Example
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid limit"
// @Failure     500  {object}  handlers.ErrorResponse  "Examples unavailable"
// @Router      /examples [get]
func (h *Handlers) ListExamples(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	if limit < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid limit")
		return
	}
	if limit > 0 {
		limit = utils.ClampInt(limit, 1, MaxExamples)
	}

	items, err := h.exampleSvc.Search(c.Query("q"), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "examples unavailable")
		return
	}
	ok(c, http.StatusOK, items)
}
