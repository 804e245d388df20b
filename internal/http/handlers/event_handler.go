// Event HTTP handler.
//
//   - POST /event       (record an analytics event)
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// DTOs
//

// EventRequest is the JSON payload for POST /event.
type EventRequest struct {
	EventType string `json:"event_type" example:"share_twitter"`
	URL       string `json:"url"        example:"https://example.com"`
}

// EventResponse acknowledges a recorded event.
type EventResponse struct {
	Success bool `json:"success" example:"true"`
}

// PostEvent godoc
// @ID          postEvent
// @Summary     Record an analytics event
// @Description Stores the event with the caller's user agent and a SHA-256 hash of its IP.
// @Tags        Events
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.EventRequest  true  "Event payload"
//
// @Success     200  {object}  handlers.EventResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Store failure"
// @Router      /event [post]
func (h *Handlers) PostEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.eventSvc.Record(c.Request.Context(), req.EventType, req.URL, c.Request.UserAgent(), c.ClientIP()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "DB insert failed")
		return
	}
	ok(c, http.StatusOK, EventResponse{Success: true})
}
