package monitoring

// SettlementMetrics groups the per-attempt recording done by the HTTP
// call sites.
type SettlementMetrics struct {
	method string
}

func NewSettlementMetrics(method string) *SettlementMetrics {
	return &SettlementMetrics{
		method: method,
	}
}

func (m *SettlementMetrics) RecordAttempt() {
	RecordSettlement(m.method, "attempted")
}

func (m *SettlementMetrics) RecordSuccess() {
	RecordSettlement(m.method, "succeeded")
}

func (m *SettlementMetrics) RecordFailure(reason string) {
	RecordSettlement(m.method, "failed")
}
