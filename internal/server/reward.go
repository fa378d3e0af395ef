package server

import (
	"net/http"
	"strings"

	auditdomain "github.com/brewtab/perka/internal/audit/domain"
	auditservice "github.com/brewtab/perka/internal/audit/service"
	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// @Summary      List Customer Rewards
// @Description  List rewards issued to a customer
// @Tags         rewards
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  []rewarddomain.Reward
// @Router       /customers/{id}/rewards [get]
func (s *Server) ListCustomerRewards(c *gin.Context) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, customerdomain.ErrInvalidID)
		return
	}

	resp, err := s.rewardSvc.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Redeem Reward
// @Description  Redeem an unused reward; conflicts report whether it was already used or expired
// @Tags         rewards
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Reward ID"
// @Success      200  {object}  rewarddomain.Reward
// @Router       /rewards/{id}/redeem [post]
func (s *Server) RedeemReward(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.rewardSvc.Redeem(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(c.Request.Context(), auditservice.Entry{
			ActorType:  auditdomain.ActorTypeStaff,
			Action:     auditdomain.ActionRewardRedeemed,
			TargetType: "reward",
			TargetID:   resp.ID.String(),
			Metadata: map[string]any{
				"customer_id":        resp.CustomerID.String(),
				"threshold_multiple": resp.ThresholdMultiple,
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
