package svc

import "errors"

// ErrNoExchangesEnabled means no enabled exchange has a registered client.
var ErrNoExchangesEnabled = errors.New("no exchange clients enabled")
