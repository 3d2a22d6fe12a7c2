package broadcast

import "fmt"

const (
	TypePing         = "ping"
	TypePong         = "pong"
	TypeRequestData  = "request_data"
	TypeDataResponse = "data_response"
	TypeInitialData  = "initial_data"
	TypePriceUpdate  = "price_update"
)

// ExchangeQuote is one source's figures inside a Record.
type ExchangeQuote struct {
	Exchange         string  `json:"exchange"`
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Change24h        float64 `json:"change_24h"`
	Change24hPercent float64 `json:"change_24h_percent"`
	Volume24h        float64 `json:"volume_24h"`
	Timestamp        int64   `json:"timestamp"`
}

// Record is the flattened per-symbol view sent to subscribers and HTTP clients.
type Record struct {
	Symbol           string                   `json:"symbol"`
	Name             string                   `json:"name"`
	Price            float64                  `json:"price"`
	Change24h        float64                  `json:"change_24h"`
	Change24hPercent float64                  `json:"change_24h_percent"`
	Exchanges        map[string]ExchangeQuote `json:"exchanges"`
	PriceSources     int                      `json:"price_sources"`
	Timestamp        int64                    `json:"timestamp"`
}

type DataMessage struct {
	Type      string   `json:"type"`
	Data      []Record `json:"data"`
	Timestamp int64    `json:"timestamp"`
}

type PongMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

type inboundMessage struct {
	Type string `json:"type"`
}

// DeliveryError means one subscriber could not be reached.
type DeliveryError struct {
	SubscriberID string
	Err          error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.SubscriberID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ProtocolError is a malformed inbound subscriber message.
type ProtocolError struct {
	SubscriberID string
	Err          error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed message from %s: %v", e.SubscriberID, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
