package use_cases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokohub/settlement-service/internal/application/ports"
	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/payment"
	"github.com/sokohub/settlement-service/internal/domain/pricing"
	"github.com/sokohub/settlement-service/internal/domain/sale"
	"github.com/sokohub/settlement-service/internal/pkg/clock"
	"github.com/sokohub/settlement-service/internal/pkg/generator"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

type settlementFixture struct {
	repo    *memRepo
	gateway *mockGateway
	cache   *mockCache
	events  *mockPublisher
	recon   *mockReconStore
	commit  *CommitService
	uc      *SettlementUseCase
}

func newSettlementFixture(gateway *mockGateway) *settlementFixture {
	clk := clock.NewMockClock(time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC))
	log := logger.NewLogger()

	repo := newMemRepo()
	commit := NewCommitService(repo, generator.NewCodeGenerator(), clk, log)
	tracker := NewIntentTracker(gateway, clk, log, testPollInterval, testTimeout)

	cache := newMockCache()
	events := &mockPublisher{}
	recon := &mockReconStore{}

	uc := NewSettlementUseCase(gateway, cache, events, recon, tracker, clk, log, 150*time.Second)

	return &settlementFixture{
		repo:    repo,
		gateway: gateway,
		cache:   cache,
		events:  events,
		recon:   recon,
		commit:  commit,
		uc:      uc,
	}
}

func (f *settlementFixture) cartSettlement(cartID string, lines []pricing.Line, method sale.PaymentMethod) *CartSettlement {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.Total()
	}
	totals := pricing.Totals{Subtotal: subtotal, TotalAmount: subtotal}

	return NewCartSettlement(cartID, lines, totals, "cust-1", "branch-1", method, "", f.commit)
}

func singleLine(quantity int) []pricing.Line {
	return []pricing.Line{{ProductID: "p-1", Quantity: quantity, UnitPrice: 500}}
}

func TestSettle_CashCommitsImmediately(t *testing.T) {
	fixture := newSettlementFixture(&mockGateway{})
	fixture.repo.stock["p-1"] = 5

	settlement := fixture.cartSettlement("cart-1", singleLine(2), sale.MethodCash)

	outcome, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodCash, "")

	require.NoError(t, err)
	require.NotNil(t, outcome.Sale)
	assert.Empty(t, outcome.Sale.PaymentReference)
	assert.Equal(t, 3, fixture.repo.stockLevel("p-1"))
	assert.Equal(t, 0, fixture.gateway.pollCount())
	assert.Len(t, fixture.events.saleCompleted, 1)
}

func TestSettle_MobileMoneyConfirmedCommitsExactlyOnce(t *testing.T) {
	gateway := &mockGateway{
		initiateRef: "MM-REF-001",
		statuses: []ports.GatewayStatus{
			{State: ports.GatewayPending},
			{State: ports.GatewayPending},
			{State: ports.GatewayCompleted},
		},
	}
	fixture := newSettlementFixture(gateway)
	fixture.repo.stock["p-1"] = 5

	settlement := fixture.cartSettlement("cart-1", singleLine(2), sale.MethodMobileMoney)

	outcome, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodMobileMoney, "+254712345678")

	require.NoError(t, err)
	require.NotNil(t, outcome.Sale)
	assert.Equal(t, payment.StateSucceeded, outcome.IntentState)
	assert.Equal(t, "MM-REF-001", outcome.ExternalReference)
	assert.Equal(t, "MM-REF-001", outcome.Sale.PaymentReference)

	assert.Equal(t, 1, fixture.repo.commits)
	assert.Equal(t, 1, fixture.repo.saleCount())
	assert.Equal(t, 3, fixture.repo.stockLevel("p-1"))
	assert.Len(t, fixture.events.saleCompleted, 1)
	assert.Empty(t, fixture.recon.records)
}

func TestSettle_DuplicateReferenceNeverCommitsTwice(t *testing.T) {
	gateway := &mockGateway{
		initiateRef: "MM-REF-001",
		statuses:    []ports.GatewayStatus{{State: ports.GatewayCompleted}},
	}
	fixture := newSettlementFixture(gateway)
	fixture.repo.stock["p-1"] = 5
	fixture.cache.claimReference("MM-REF-001")

	settlement := fixture.cartSettlement("cart-1", singleLine(2), sale.MethodMobileMoney)

	_, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodMobileMoney, "+254712345678")

	assert.ErrorIs(t, err, domainErrors.ErrReferenceAlreadyProcessed)
	assert.Equal(t, 0, fixture.repo.commits)
	assert.Equal(t, 5, fixture.repo.stockLevel("p-1"))
}

func TestSettle_InitiationFailureReturnsGatewayUnavailable(t *testing.T) {
	gateway := &mockGateway{initiateErr: errors.New("dial tcp: connection refused")}
	fixture := newSettlementFixture(gateway)
	fixture.repo.stock["p-1"] = 5

	settlement := fixture.cartSettlement("cart-1", singleLine(2), sale.MethodMobileMoney)

	_, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodMobileMoney, "+254712345678")

	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
	assert.Equal(t, 0, fixture.repo.commits)
	assert.Equal(t, 0, fixture.gateway.pollCount())
	assert.Empty(t, fixture.recon.records)
}

func TestSettle_DeclinedPaymentPublishesFailure(t *testing.T) {
	gateway := &mockGateway{
		initiateRef: "MM-REF-001",
		statuses:    []ports.GatewayStatus{{State: ports.GatewayFailed, Detail: "insufficient funds"}},
	}
	fixture := newSettlementFixture(gateway)
	fixture.repo.stock["p-1"] = 5

	settlement := fixture.cartSettlement("cart-1", singleLine(2), sale.MethodMobileMoney)

	_, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodMobileMoney, "+254712345678")

	assert.ErrorIs(t, err, domainErrors.ErrPaymentFailed)
	assert.Contains(t, err.Error(), "insufficient funds")
	assert.Equal(t, 0, fixture.repo.commits)
	require.Len(t, fixture.events.paymentFailed, 1)
	assert.Equal(t, "insufficient funds", fixture.events.paymentFailed[0].Reason)
	// A decline is final; nothing to reconcile.
	assert.Empty(t, fixture.recon.records)
}

func TestSettle_TimeoutQueuesReconciliationAndCommitsNothing(t *testing.T) {
	gateway := &mockGateway{initiateRef: "MM-REF-001"} // pending forever
	fixture := newSettlementFixture(gateway)
	fixture.repo.stock["p-1"] = 5

	settlement := fixture.cartSettlement("cart-1", singleLine(2), sale.MethodMobileMoney)

	_, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodMobileMoney, "+254712345678")

	assert.ErrorIs(t, err, domainErrors.ErrPaymentTimedOut)
	assert.Equal(t, 0, fixture.repo.commits)
	assert.Equal(t, 5, fixture.repo.stockLevel("p-1"))

	require.Len(t, fixture.recon.records, 1)
	record := fixture.recon.records[0]
	assert.Equal(t, "MM-REF-001", record.ExternalReference)
	assert.Equal(t, ports.ReconciliationReasonTimeout, record.Reason)
	assert.Equal(t, "cart-1", record.SettlementID)

	assert.Len(t, fixture.events.paymentFailed, 1)
}

func TestSettle_FulfillmentFailureIsDistinctFromPaymentFailure(t *testing.T) {
	gateway := &mockGateway{
		initiateRef: "MM-REF-001",
		statuses:    []ports.GatewayStatus{{State: ports.GatewayCompleted}},
	}
	fixture := newSettlementFixture(gateway)
	// Stock vanished between cart assembly and confirmation.
	fixture.repo.stock["p-1"] = 1

	settlement := fixture.cartSettlement("cart-1", singleLine(2), sale.MethodMobileMoney)

	_, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodMobileMoney, "+254712345678")

	assert.ErrorIs(t, err, domainErrors.ErrFulfillmentFailed)
	assert.NotErrorIs(t, err, domainErrors.ErrPaymentFailed)
	assert.Equal(t, 0, fixture.repo.commits)
	assert.Equal(t, 1, fixture.repo.stockLevel("p-1"))

	require.Len(t, fixture.recon.records, 1)
	assert.Equal(t, ports.ReconciliationReasonUnfulfilled, fixture.recon.records[0].Reason)
}

func TestSettle_ConcurrentSettlementRejected(t *testing.T) {
	fixture := newSettlementFixture(&mockGateway{})
	fixture.repo.stock["p-1"] = 5
	fixture.cache.locks["cart-1"] = true

	settlement := fixture.cartSettlement("cart-1", singleLine(1), sale.MethodCash)

	_, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodCash, "")

	assert.ErrorIs(t, err, domainErrors.ErrSettlementInProgress)
	assert.Equal(t, 0, fixture.repo.commits)
}

func TestSettle_LockReleasedAfterSettlement(t *testing.T) {
	fixture := newSettlementFixture(&mockGateway{})
	fixture.repo.stock["p-1"] = 5

	settlement := fixture.cartSettlement("cart-1", singleLine(1), sale.MethodCash)

	_, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodCash, "")
	require.NoError(t, err)

	// A second settlement of the same cart is stopped by the commit
	// path, not by a stale lock.
	assert.False(t, fixture.cache.locks["cart-1"])
}

func TestSettle_RejectsNonPositiveAmount(t *testing.T) {
	fixture := newSettlementFixture(&mockGateway{})

	settlement := NewCartSettlement("cart-1", singleLine(1), pricing.Totals{}, "cust-1", "branch-1", sale.MethodCash, "", fixture.commit)

	_, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodCash, "")

	assert.ErrorIs(t, err, domainErrors.ErrInvalidAmount)
}

func TestSettle_InvalidPhoneNeverReachesGateway(t *testing.T) {
	gateway := &mockGateway{initiateRef: "MM-REF-001"}
	fixture := newSettlementFixture(gateway)
	fixture.repo.stock["p-1"] = 5

	settlement := fixture.cartSettlement("cart-1", singleLine(1), sale.MethodMobileMoney)

	_, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodMobileMoney, "bogus")

	assert.ErrorIs(t, err, domainErrors.ErrInvalidPhoneNumber)
	assert.Equal(t, 0, gateway.initiations)
}

func TestSettle_LastUnitSellsOnceThenRejects(t *testing.T) {
	fixture := newSettlementFixture(&mockGateway{})
	fixture.repo.stock["p-1"] = 1

	first := fixture.cartSettlement("cart-1", singleLine(1), sale.MethodCash)
	outcome, err := fixture.uc.Settle(context.Background(), first, sale.MethodCash, "")
	require.NoError(t, err)
	require.NotNil(t, outcome.Sale)
	assert.Equal(t, 0, fixture.repo.stockLevel("p-1"))

	second := fixture.cartSettlement("cart-2", singleLine(1), sale.MethodCash)
	_, err = fixture.uc.Settle(context.Background(), second, sale.MethodCash, "")

	assert.ErrorIs(t, err, domainErrors.ErrInsufficientStock)
	assert.Equal(t, 1, fixture.repo.commits)
	assert.Equal(t, 1, fixture.repo.saleCount())
}

func TestSettle_StockRequestFlipsStatusWithCommit(t *testing.T) {
	gateway := &mockGateway{
		initiateRef: "MM-REF-002",
		statuses:    []ports.GatewayStatus{{State: ports.GatewayCompleted}},
	}
	fixture := newSettlementFixture(gateway)
	fixture.repo.stock["p-1"] = 10
	fixture.repo.requests["req-1"] = &sale.StockRequest{
		ID:        "req-1",
		BranchID:  "branch-2",
		Status:    sale.RequestStatusApproved,
		AmountDue: 2500,
		Lines:     []pricing.Line{{ProductID: "p-1", Quantity: 5, UnitPrice: 500}},
	}

	settlement := NewStockRequestSettlement(fixture.repo.requests["req-1"], sale.MethodMobileMoney, fixture.commit)

	outcome, err := fixture.uc.Settle(context.Background(), settlement, sale.MethodMobileMoney, "+254712345678")

	require.NoError(t, err)
	require.NotNil(t, outcome.Sale)
	assert.Equal(t, "req-1", outcome.Sale.SourceRequestID)
	assert.Equal(t, sale.RequestStatusPaid, fixture.repo.requests["req-1"].Status)
	assert.Equal(t, 5, fixture.repo.stockLevel("p-1"))
}
