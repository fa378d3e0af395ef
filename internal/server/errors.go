package server

import (
	"errors"
	"net/http"

	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	"github.com/brewtab/perka/internal/loyalty"
	notificationdomain "github.com/brewtab/perka/internal/notification/domain"
	rewarddomain "github.com/brewtab/perka/internal/reward/domain"
	"github.com/gin-gonic/gin"
)

// ErrNotFound hides endpoints that should not exist for the caller.
var ErrNotFound = errors.New("not_found")

// APIError is the wire shape for a failed request.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Code }

func invalidRequestError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body or query is invalid",
	}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Field:   field,
		Message: message,
	}
}

// AbortWithError maps domain errors onto HTTP statuses. Conflicts stay
// distinguishable so the UI can explain why a redemption failed.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrCustomerNotFound),
		errors.Is(err, rewarddomain.ErrRewardNotFound),
		errors.Is(err, notificationdomain.ErrNotificationNotFound):
		status = http.StatusNotFound
		code = err.Error()
	case errors.Is(err, rewarddomain.ErrRewardAlreadyUsed),
		errors.Is(err, rewarddomain.ErrRewardExpired),
		errors.Is(err, customerdomain.ErrInsufficientPoints),
		errors.Is(err, customerdomain.ErrCustomerArchived):
		status = http.StatusConflict
		code = err.Error()
	case errors.Is(err, customerdomain.ErrInvalidID),
		errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidPhone),
		errors.Is(err, customerdomain.ErrInvalidPointsDelta),
		errors.Is(err, rewarddomain.ErrInvalidID),
		errors.Is(err, notificationdomain.ErrInvalidID),
		errors.Is(err, loyalty.ErrInvalidOrderID):
		status = http.StatusBadRequest
		code = err.Error()
	}

	message := "request failed"
	if status != http.StatusInternalServerError {
		message = err.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{"error": &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}})
}
