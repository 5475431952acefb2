package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
	templatedomain "github.com/openrentals/rentbill/internal/invoicetemplate/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type       string                          `json:"type"`
	Message    string                          `json:"message"`
	Errors     []ValidationError               `json:"errors,omitempty"`
	Violations []invoicedomain.FieldViolation  `json:"violations,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
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
	var fieldErrs *ValidationErrors
	if errors.As(err, &fieldErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "request validation failed",
			Errors:  fieldErrs.Errors,
		}
	}

	var formErr *invoicedomain.ValidationError
	if errors.As(err, &formErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:       "form_validation_error",
			Message:    "invoice has blocking field errors",
			Violations: formErr.Violations,
		}
	}

	switch {
	case errors.Is(err, invoicedomain.ErrInvalidInvoiceID):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: "invalid invoice id"}
	case errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, invoicedomain.ErrItemNotFound),
		errors.Is(err, invoicedomain.ErrContractNotFound),
		errors.Is(err, templatedomain.ErrTemplateNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "resource not found"}
	case errors.Is(err, invoicedomain.ErrInvoiceImmutable):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: "invoice is not editable in its current status"}
	case errors.Is(err, invoicedomain.ErrRentItemUndeletable):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: "rent items cannot be deleted"}
	case errors.Is(err, templatedomain.ErrDuplicateCode):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: "template code already exists"}
	case errors.Is(err, templatedomain.ErrInvalidName):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: "template name is required"}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: "invalid request"}
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: "conflict"}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal error"}
	}
}
