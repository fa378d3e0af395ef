package server

import (
	"net/http"
	"strconv"
	"strings"

	auditdomain "github.com/brewtab/perka/internal/audit/domain"
	auditservice "github.com/brewtab/perka/internal/audit/service"
	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	"github.com/brewtab/perka/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// @Summary      Create Customer
// @Description  Register a new loyalty program member
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body createCustomerRequest true "Create Customer Request"
// @Success      200  {object}  customerdomain.Customer
// @Router       /customers [post]
func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
		Email: strings.TrimSpace(req.Email),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(c.Request.Context(), auditservice.Entry{
			ActorType:  auditdomain.ActorTypeStaff,
			Action:     auditdomain.ActionCustomerCreated,
			TargetType: "customer",
			TargetID:   resp.ID.String(),
			Metadata: map[string]any{
				"name":  resp.Name,
				"phone": resp.Phone,
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Customers
// @Description  List loyalty program members
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        name        query     string  false  "Name"
// @Param        phone       query     string  false  "Phone"
// @Param        page_token  query     string  false  "Page Token"
// @Param        page_size   query     int     false  "Page Size"
// @Success      200  {object}  customerdomain.ListCustomerResponse
// @Router       /customers [get]
func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name  string `form:"name"`
		Phone string `form:"phone"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Name:      strings.TrimSpace(query.Name),
		Phone:     strings.TrimSpace(query.Phone),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Eligible Customers
// @Description  List customers at or above a point threshold
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        threshold  query  int  false  "Point threshold"
// @Success      200  {object}  []customerdomain.Customer
// @Router       /customers/eligible [get]
func (s *Server) ListEligibleCustomers(c *gin.Context) {
	threshold := s.cfg.Loyalty.PointsForFreeDrink
	if raw := strings.TrimSpace(c.Query("threshold")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, newValidationError("threshold", "invalid_threshold", "invalid threshold"))
			return
		}
		threshold = parsed
	}

	resp, err := s.customerSvc.ListEligible(c.Request.Context(), threshold)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Customer
// @Description  Get customer by ID
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  customerdomain.Customer
// @Router       /customers/{id} [get]
func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type redeemPointsRequest struct {
	Points int `json:"points"`
}

// @Summary      Redeem Points
// @Description  Deduct points from a customer's balance
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "Customer ID"
// @Param        request  body  redeemPointsRequest  true  "Redeem Points Request"
// @Success      200  {object}  customerdomain.Customer
// @Router       /customers/{id}/redeem [post]
func (s *Server) RedeemPoints(c *gin.Context) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, customerdomain.ErrInvalidID)
		return
	}

	var req redeemPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Redeem(c.Request.Context(), customerID, req.Points)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(c.Request.Context(), auditservice.Entry{
			ActorType:  auditdomain.ActorTypeStaff,
			Action:     auditdomain.ActionPointsRedeemed,
			TargetType: "customer",
			TargetID:   resp.ID.String(),
			Metadata: map[string]any{
				"points":    req.Points,
				"remaining": resp.LoyaltyPoints,
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Archive Customer
// @Description  Soft-archive a customer record
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  map[string]string
// @Router       /customers/{id} [delete]
func (s *Server) ArchiveCustomer(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.customerSvc.Archive(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(c.Request.Context(), auditservice.Entry{
			ActorType:  auditdomain.ActorTypeStaff,
			Action:     auditdomain.ActionCustomerArchived,
			TargetType: "customer",
			TargetID:   id,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
