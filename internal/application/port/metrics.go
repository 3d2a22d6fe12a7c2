package port

import "time"

// Metrics receives operational counters from the core. Implementations must be safe
// for concurrent use.
type Metrics interface {
	FetchCompleted(source string, symbols int, elapsed time.Duration)
	FetchFailed(source string, kind FetchErrorKind)
	CycleCompleted(symbols int, elapsed time.Duration)
	CycleFailed()
	SubscribersChanged(active int)
	MessageDelivered(msgType string)
	DeliveryFailed(msgType string)
}

type nopMetrics struct{}

// NopMetrics discards everything.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) FetchCompleted(string, int, time.Duration) {}
func (nopMetrics) FetchFailed(string, FetchErrorKind)        {}
func (nopMetrics) CycleCompleted(int, time.Duration)         {}
func (nopMetrics) CycleFailed()                              {}
func (nopMetrics) SubscribersChanged(int)                    {}
func (nopMetrics) MessageDelivered(string)                   {}
func (nopMetrics) DeliveryFailed(string)                     {}
