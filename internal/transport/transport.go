// Package transport delivers inbound announcement events from either a live
// socket or a synthetic generator behind one interface.
package transport

import (
	"context"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

// Status is the connection state exposed to callers.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Mode says which implementation is behind a Transport.
type Mode string

const (
	ModeLive      Mode = "live"
	ModeSimulated Mode = "simulated"
)

// Handler receives every inbound event, on the transport's own goroutine.
type Handler func(domain.InboundEvent)

// Transport is implemented by Socket and Simulated.
//
// Connect never fails because the remote end is unreachable; it degrades to
// StatusDisconnected instead. Disconnect returns only once the delivery
// goroutine has exited, so the Handler is never called after it returns.
type Transport interface {
	Connect(ctx context.Context, credential string) error
	Disconnect()
	Status() Status
	Mode() Mode
	// Delivered counts the events handed to the Handler so far.
	Delivered() int64
}
