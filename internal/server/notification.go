package server

import (
	"net/http"
	"strings"

	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// @Summary      List Unread Notifications
// @Description  List unread notifications, optionally for one customer
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        customer_id  query  string  false  "Customer ID"
// @Success      200  {object}  []notificationdomain.Notification
// @Router       /notifications/unread [get]
func (s *Server) ListUnreadNotifications(c *gin.Context) {
	var customerID *snowflake.ID
	if raw := strings.TrimSpace(c.Query("customer_id")); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, customerdomain.ErrInvalidID)
			return
		}
		customerID = &parsed
	}

	resp, err := s.notificationSvc.ListUnread(c.Request.Context(), customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Mark Notification Read
// @Description  Acknowledge a notification
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  notificationdomain.Notification
// @Router       /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *gin.Context) {
	resp, err := s.notificationSvc.MarkRead(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
