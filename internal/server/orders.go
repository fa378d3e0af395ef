package server

import (
	"net/http"
	"strings"
	"time"

	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	"github.com/brewtab/perka/internal/loyalty"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type completeOrderRequest struct {
	CustomerID  string     `json:"customer_id"`
	OrderID     string     `json:"order_id"`
	PointsDelta int        `json:"points_delta"`
	OccurredAt  *time.Time `json:"occurred_at"`
}

// @Summary      Complete Order
// @Description  Apply a completed order to the loyalty pipeline
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body completeOrderRequest true "Complete Order Request"
// @Success      200  {object}  loyalty.Result
// @Router       /orders/complete [post]
func (s *Server) CompleteOrder(c *gin.Context) {
	if !s.ingestLimiter.Allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": &APIError{
			Status:  http.StatusTooManyRequests,
			Code:    "rate_limited",
			Message: "too many order completions from this client",
		}})
		return
	}

	var req completeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		AbortWithError(c, customerdomain.ErrInvalidID)
		return
	}

	order := loyalty.OrderCompleted{
		CustomerID:  customerID,
		OrderID:     strings.TrimSpace(req.OrderID),
		PointsDelta: req.PointsDelta,
	}
	if req.OccurredAt != nil {
		order.OccurredAt = req.OccurredAt.UTC()
	}

	resp, err := s.pipeline.ProcessOrder(c.Request.Context(), order)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
