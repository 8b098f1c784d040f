package sale

import (
	"errors"
	"time"

	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/pricing"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCredit       PaymentMethod = "credit"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodCash, MethodMobileMoney, MethodBankTransfer, MethodCredit:
		return PaymentMethod(s), nil
	default:
		return "", domainErrors.ErrInvalidPaymentMethod
	}
}

// RequiresConfirmation reports whether settlement must wait on an
// asynchronous provider confirmation before stock moves.
func (m PaymentMethod) RequiresConfirmation() bool {
	return m == MethodMobileMoney
}

type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

// Sale is the durable commit artifact, created exactly once per
// successful checkout and never mutated afterwards except for
// shipping-side status fields that live outside this service.
type Sale struct {
	ID               string        `json:"id"`
	ReceiptNumber    string        `json:"receipt_number"`
	CustomerID       string        `json:"customer_id"`
	BranchID         string        `json:"branch_id"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	Items            []Item        `json:"items"`
	Subtotal         int64         `json:"subtotal"`
	DiscountAmount   int64         `json:"discount_amount"`
	TaxAmount        int64         `json:"tax_amount"`
	TotalAmount      int64         `json:"total_amount"`
	SourceInvoiceID  string        `json:"source_invoice_id,omitempty"`
	SourceRequestID  string        `json:"source_request_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

func NewSale(id, receiptNumber, customerID, branchID string, method PaymentMethod, lines []pricing.Line, totals pricing.Totals) (*Sale, error) {
	if id == "" {
		return nil, errors.New("sale id cannot be empty")
	}
	if receiptNumber == "" {
		return nil, errors.New("receipt number cannot be empty")
	}
	if branchID == "" {
		return nil, errors.New("branch id cannot be empty")
	}
	if len(lines) == 0 {
		return nil, domainErrors.ErrEmptyCart
	}

	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, domainErrors.ErrInvalidQuantity
		}
		items = append(items, Item{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.Total(),
		})
	}

	return &Sale{
		ID:             id,
		ReceiptNumber:  receiptNumber,
		CustomerID:     customerID,
		BranchID:       branchID,
		PaymentMethod:  method,
		Items:          items,
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		TotalAmount:    totals.TotalAmount,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (s *Sale) ItemCount() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}
