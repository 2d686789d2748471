package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	billingdomain "github.com/craftline/salesdesk/internal/billing/domain"
	orderdomain "github.com/craftline/salesdesk/internal/order/domain"
	shippingdomain "github.com/craftline/salesdesk/internal/shipping/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v *ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	// Tax placement findings from the order validator come back with the
	// failing line indexes.
	var oErr *orderdomain.ValidationError
	if errors.As(err, &oErr) {
		fields := make([]ValidationError, 0, len(oErr.Issues))
		for _, issue := range oErr.Issues {
			fields = append(fields, ValidationError{
				Field:   "lines",
				Code:    "tax_mismatch",
				Message: issue.Message,
			})
		}
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "order_validation_error",
			Message: "order validation failed",
			Errors:  fields,
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, orderdomain.ErrInvalidID),
		errors.Is(err, orderdomain.ErrNoLines),
		errors.Is(err, orderdomain.ErrMissingCustomerName),
		errors.Is(err, orderdomain.ErrInvalidPaymentMode):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
		}
	case errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, billingdomain.ErrNotFound),
		errors.Is(err, shippingdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, orderdomain.ErrDuplicateSubmission):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a submission for this order is already in progress",
		}
	case errors.Is(err, orderdomain.ErrNotInvoiced),
		errors.Is(err, orderdomain.ErrAlreadyShipped):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "order is not in a shippable state",
		}
	case errors.Is(err, billingdomain.ErrRejected),
		errors.Is(err, shippingdomain.ErrRejected):
		return http.StatusBadGateway, errorPayload{
			Type:    "provider_rejected",
			Message: "the upstream provider rejected the request",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, orderdomain.ErrCatalogUnavailable),
		errors.Is(err, billingdomain.ErrUnavailable),
		errors.Is(err, shippingdomain.ErrUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// classifyErrorForLog folds handler errors into a (kind, code) pair for
// the request log line.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case err == nil:
		return "", ""
	case asValidationErrors(err) != nil,
		errors.Is(err, orderdomain.ErrValidationFailed):
		return "validation", "invalid_request"
	case errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return "not_found", "not_found"
	case errors.Is(err, billingdomain.ErrUnavailable),
		errors.Is(err, shippingdomain.ErrUnavailable),
		errors.Is(err, orderdomain.ErrCatalogUnavailable):
		return "upstream", "unavailable"
	case errors.Is(err, billingdomain.ErrRejected),
		errors.Is(err, shippingdomain.ErrRejected):
		return "upstream", "rejected"
	default:
		return "internal", "internal_error"
	}
}
