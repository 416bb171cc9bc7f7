package core

import "time"

const (
	// MaxWriteRetries bounds the optimistic-write retry loop before a
	// request fails with ErrContention.
	MaxWriteRetries = 3

	// MaxNumberRetries bounds the order-number sequence retry loop.
	MaxNumberRetries = 5

	// OrderLockTimeout bounds how long a request waits on its
	// per-order serialization point.
	OrderLockTimeout = 3 * time.Second

	// SubscriberBuffer is the bounded per-subscriber event queue.
	// When it is full, new events for that subscriber are dropped.
	SubscriberBuffer = 32

	MaxItemsPerOrder = 50
	MaxItemQuantity  = 100

	ShutdownTimeout = 10 * time.Second
)
