package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"pricehub/internal/application/port"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FetchCompleted("binance", 30, 120*time.Millisecond)
	m.FetchFailed("coinbase", port.FetchBadStatus)
	m.FetchFailed("coinbase", port.FetchBadStatus)
	m.CycleCompleted(28, time.Second)
	m.CycleFailed()
	m.SubscribersChanged(3)
	m.MessageDelivered("price_update")
	m.DeliveryFailed("price_update")

	assert.Equal(t, 30.0, testutil.ToFloat64(m.fetchSymbols.WithLabelValues("binance")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetchErrors.WithLabelValues("coinbase", "bad_status")))
	assert.Equal(t, 28.0, testutil.ToFloat64(m.cycleSymbols))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycleFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.subscribers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesSent.WithLabelValues("price_update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveryFailure.WithLabelValues("price_update")))

	assert.Equal(t, 1, testutil.CollectAndCount(m.cycleDuration))
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
