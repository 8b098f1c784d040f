package response

import (
	"errors"
	"net/http"

	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
)

type ErrorMapping struct {
	HTTPStatus int
	Status     Status
	Message    string
}

var errorMappings = map[error]ErrorMapping{
	domainErrors.ErrEmptyCart: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Cart has no lines",
	},
	domainErrors.ErrInvalidQuantity: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Quantity must be positive",
	},
	domainErrors.ErrInvalidUnitPrice: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Unit price must be positive",
	},
	domainErrors.ErrInvalidPhoneNumber: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Payer phone number is invalid",
	},
	domainErrors.ErrInvalidAmount: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Settlement amount must be positive",
	},
	domainErrors.ErrInvalidPaymentMethod: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Unknown payment method",
	},
	domainErrors.ErrProductNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Product not found",
	},
	domainErrors.ErrSaleNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Sale not found",
	},
	domainErrors.ErrInvoiceNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Invoice not found or already paid",
	},
	domainErrors.ErrStockRequestNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Stock request not found",
	},
	domainErrors.ErrReconciliationNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Reconciliation record not found",
	},
	domainErrors.ErrStockRequestNotPayable: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Stock request is not in a payable state",
	},
	domainErrors.ErrInsufficientStock: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Insufficient stock",
	},
	domainErrors.ErrSettlementInProgress: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "A settlement for this target is already in progress",
	},
	domainErrors.ErrReferenceAlreadyProcessed: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Payment reference has already been processed",
	},
	domainErrors.ErrInvalidStateTransition: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Payment intent is not in a valid state for this operation",
	},
	domainErrors.ErrPaymentFailed: {
		HTTPStatus: http.StatusPaymentRequired,
		Status:     StatusError,
		Message:    "Payment was declined",
	},
	domainErrors.ErrPaymentTimedOut: {
		HTTPStatus: http.StatusGatewayTimeout,
		Status:     StatusGatewayTimeout,
		Message:    "Payment confirmation timed out; reference queued for reconciliation",
	},
	domainErrors.ErrPaymentAbandoned: {
		HTTPStatus: http.StatusRequestTimeout,
		Status:     StatusError,
		Message:    "Payment wait was abandoned; reference queued for reconciliation",
	},
	domainErrors.ErrGatewayUnavailable: {
		HTTPStatus: http.StatusBadGateway,
		Status:     StatusServiceUnavailable,
		Message:    "Payment gateway is unavailable",
	},
	// Paid but not committed is not a plain failure: staff must act on it.
	domainErrors.ErrFulfillmentFailed: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Payment succeeded but the sale could not be fulfilled; queued for manual reconciliation",
	},
	domainErrors.ErrTransactionFailed: {
		HTTPStatus: http.StatusInternalServerError,
		Status:     StatusInternalError,
		Message:    "Transaction failed",
	},
}

func MapDomainError(err error) (int, *ErrorResponse) {
	for domainErr, mapping := range errorMappings {
		if errors.Is(err, domainErr) {
			return mapping.HTTPStatus, Error(mapping.Status, mapping.Message, err.Error())
		}
	}

	return http.StatusInternalServerError, Error(StatusInternalError, "Internal server error", err.Error())
}

func WriteDomainError(w http.ResponseWriter, err error) {
	statusCode, errorResponse := MapDomainError(err)
	WriteJSON(w, statusCode, errorResponse)
}
