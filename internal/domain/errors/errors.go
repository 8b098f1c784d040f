package errors

import (
	"errors"
)

var (
	ErrEmptyCart         = errors.New("cart has no line items")
	ErrInvalidQuantity   = errors.New("quantity must be at least one")
	ErrInvalidUnitPrice  = errors.New("unit price cannot be negative")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrInvalidPhoneNumber   = errors.New("payer phone number is not a valid MSISDN")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")

	ErrInvalidStateTransition = errors.New("invalid payment intent state transition")
	ErrGatewayUnavailable     = errors.New("payment gateway unavailable")

	ErrPaymentFailed    = errors.New("payment failed")
	ErrPaymentTimedOut  = errors.New("payment confirmation timed out")
	ErrPaymentAbandoned = errors.New("payment abandoned by operator")

	// ErrFulfillmentFailed marks the case where money has moved but stock
	// could not be allocated at commit time. Never collapsed into a plain
	// payment failure: staff must pursue a refund, not retry payment.
	ErrFulfillmentFailed = errors.New("payment succeeded but order could not be fulfilled")

	ErrSettlementInProgress      = errors.New("another settlement is in progress for this cart")
	ErrReferenceAlreadyProcessed = errors.New("payment reference has already been settled")

	ErrSaleNotFound           = errors.New("sale not found")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrStockRequestNotFound   = errors.New("stock request not found")
	ErrStockRequestNotPayable = errors.New("stock request is not approved for payment")

	ErrReconciliationNotFound = errors.New("reconciliation record not found")

	ErrTransactionFailed = errors.New("transaction failed")
)
