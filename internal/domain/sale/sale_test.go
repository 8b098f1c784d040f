package sale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/pricing"
)

func TestParsePaymentMethod(t *testing.T) {
	for _, s := range []string{"cash", "mobile_money", "bank_transfer", "credit"} {
		method, err := ParsePaymentMethod(s)
		require.NoError(t, err)
		assert.Equal(t, PaymentMethod(s), method)
	}

	_, err := ParsePaymentMethod("cheque")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidPaymentMethod)
}

func TestRequiresConfirmation(t *testing.T) {
	assert.True(t, MethodMobileMoney.RequiresConfirmation())
	assert.False(t, MethodCash.RequiresConfirmation())
	assert.False(t, MethodBankTransfer.RequiresConfirmation())
	assert.False(t, MethodCredit.RequiresConfirmation())
}

func TestNewSale(t *testing.T) {
	lines := []pricing.Line{
		{ProductID: "p-1", Quantity: 2, UnitPrice: 300},
	}
	totals := pricing.Totals{Subtotal: 600, TotalAmount: 600}

	s, err := NewSale("sale-1", "RCP-20260823-abc", "cust-1", "branch-1", MethodCash, lines, totals)
	require.NoError(t, err)

	require.Len(t, s.Items, 1)
	assert.Equal(t, int64(600), s.Items[0].LineTotal)
	assert.Equal(t, 2, s.ItemCount())
	assert.Equal(t, int64(600), s.TotalAmount)
}

func TestNewSale_Validation(t *testing.T) {
	lines := []pricing.Line{{ProductID: "p-1", Quantity: 1, UnitPrice: 100}}
	totals := pricing.Totals{Subtotal: 100, TotalAmount: 100}

	_, err := NewSale("", "rcp", "", "branch-1", MethodCash, lines, totals)
	assert.Error(t, err)

	_, err = NewSale("sale-1", "", "", "branch-1", MethodCash, lines, totals)
	assert.Error(t, err)

	_, err = NewSale("sale-1", "rcp", "", "", MethodCash, lines, totals)
	assert.Error(t, err)

	_, err = NewSale("sale-1", "rcp", "", "branch-1", MethodCash, nil, totals)
	assert.ErrorIs(t, err, domainErrors.ErrEmptyCart)
}

func TestStockRequest_Payable(t *testing.T) {
	req := &StockRequest{Status: RequestStatusApproved}
	assert.True(t, req.Payable())

	for _, status := range []RequestStatus{RequestStatusPending, RequestStatusPaid, RequestStatusShipped} {
		req.Status = status
		assert.False(t, req.Payable(), string(status))
	}
}
