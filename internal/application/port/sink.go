package port

import "errors"

var (
	ErrSubscriberClosed = errors.New("subscriber closed")
	ErrSubscriberSlow   = errors.New("subscriber send buffer full")
)

// Subscriber is one connected peer receiving pushed messages.
type Subscriber interface {
	// ID is stable for the lifetime of the connection and unique among live subscribers.
	ID() string
	// Send queues an encoded message. It must not block on the network.
	Send(msg []byte) error
	Close() error
}
