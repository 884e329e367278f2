package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsHandlerServesRegisteredCollectors(t *testing.T) {
	m := New("lobtest", nil)
	m.RecordOrderProcessed()
	m.RecordTrades(3)
	m.SetBestPrice("bid", 101.5)
	m.SetDepthLevel("bid", 0, 42)
	m.SetPoolUtilization(0.25)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "lobtest_orders_processed_total 1")
	assert.Contains(t, body, "lobtest_trades_executed_total 3")
	assert.Contains(t, body, "lobtest_order_pool_utilization 0.25")
}
