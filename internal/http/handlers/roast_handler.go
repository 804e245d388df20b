// Roast HTTP handler.
//
//   - POST /roast   (generate a roast for a website)
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-roast-backend/internal/completion"
	"github.com/tbourn/go-roast-backend/internal/fetch"
	"github.com/tbourn/go-roast-backend/internal/reply"
	"github.com/tbourn/go-roast-backend/internal/urlguard"
)

//
// DTOs
//

// RoastRequest is the JSON payload for POST /roast.
type RoastRequest struct {
	// URL is the absolute http(s) address of the site to roast.
	URL string `json:"url" example:"https://example.com"`
	// Upgrade selects the longer, paid template.
	Upgrade bool `json:"upgrade" example:"false"`
}

// RoastResponse is returned when the model reply parsed as JSON.
type RoastResponse struct {
	Roast  string   `json:"roast"`
	Advice []string `json:"advice"`
	// Jokes is only present for upgraded roasts.
	Jokes []string `json:"jokes,omitempty"`
}

// RawRoastResponse is returned when the model reply was not valid JSON.
type RawRoastResponse struct {
	Roast   string `json:"roast"`
	Warning string `json:"warning" example:"AI response was not valid JSON, returned raw text instead."`
}

// PostRoast godoc
// @ID          postRoast
// @Summary     Roast a website
// @Description Fetches the page, asks the model for a roast and returns it with improvement tips.
// @Description When the model reply is not JSON the raw text is returned with a warning.
// @Tags        Roasts
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RoastRequest  true  "Site to roast"
//
// @Success     200  {object}  handlers.RoastResponse     "Structured roast"
// @Success     200  {object}  handlers.RawRoastResponse  "Unstructured roast"
// @Failure     400  {object}  handlers.ErrorResponse     "Invalid, blocked or unreachable URL"
// @Failure     405  {object}  handlers.ErrorResponse     "Method not allowed"
// @Failure     500  {object}  handlers.ErrorResponse     "Completion API failure"
// @Router      /roast [post]
func (h *Handlers) PostRoast(c *gin.Context) {
	var req RoastRequest
	// An empty body is the same as a missing URL.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	out, err := h.roastSvc.Generate(c.Request.Context(), req.URL, req.Upgrade)
	if err != nil {
		roastFailure(c, err)
		return
	}

	if out.Degraded {
		ok(c, http.StatusOK, RawRoastResponse{Roast: out.Result.Roast, Warning: reply.Warning})
		return
	}
	ok(c, http.StatusOK, RoastResponse{
		Roast:  out.Result.Roast,
		Advice: out.Result.Advice,
		Jokes:  out.Result.Jokes,
	})
}

// roastFailure maps pipeline errors to the error envelope.
func roastFailure(c *gin.Context, err error) {
	var (
		fe *fetch.Error
		ue *completion.UpstreamError
	)
	switch {
	case errors.Is(err, urlguard.ErrMissingURL):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Missing URL")
	case errors.Is(err, urlguard.ErrInvalidURL):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid URL")
	case errors.Is(err, urlguard.ErrBlockedTarget):
		fail(c, http.StatusBadRequest, ErrCodeBlockedTarget, "Blocked for security reasons")
	case errors.As(err, &fe):
		fail(c, http.StatusBadRequest, ErrCodeFetchFailed, fe.Message)
	case errors.As(err, &ue):
		fail(c, http.StatusInternalServerError, ErrCodeUpstreamFailed, "Completion API call failed: "+ue.Detail())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
