package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Dashboard Summary
// @Description  Aggregate loyalty stats for the back office
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Success      200  {object}  service.Summary
// @Router       /dashboard/summary [get]
func (s *Server) DashboardSummary(c *gin.Context) {
	resp, err := s.dashboardSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
