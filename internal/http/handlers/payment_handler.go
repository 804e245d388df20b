// Payment HTTP handler.
//
//   - POST /payment     (create a checkout order)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-roast-backend/internal/http/middleware"
	"github.com/tbourn/go-roast-backend/internal/payment"
)

// HeaderIdempotencyReplayed marks a payment response served from a recorded
// order.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// PostPayment godoc
// @ID          postPayment
// @Summary     Create a payment order
// @Description Creates a fixed-price order that unlocks an upgraded roast.
// @Description Supports idempotency via the Idempotency-Key header (same key → same order).
// @Tags        Payments
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
//
// @Success     200  {object}  payment.Order
// @Header      200  {string}  Idempotency-Replayed  "true when the order was replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid Idempotency-Key"
// @Failure     500  {object}  handlers.ErrorResponse  "Payment gateway failure"
// @Router      /payment [post]
func (h *Handlers) PostPayment(c *gin.Context) {
	key, _ := middleware.GetIdempotencyKey(c)

	order, replayed, err := h.paySvc.CreateOrder(c.Request.Context(), key)
	if err != nil {
		var pe *payment.Error
		if errors.As(err, &pe) {
			fail(c, http.StatusInternalServerError, ErrCodeUpstreamFailed, "Failed to create order")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to create order")
		return
	}
	if replayed {
		c.Header(HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusOK, order)
}

