package services

import "errors"

// Named error values distinguish the failure classes callers must handle
// explicitly. They are matched with errors.Is and mapped to HTTP codes at the
// API boundary.
var (
	// ErrNotFound signals a missing user, item or order.
	ErrNotFound = errors.New("not found")

	// ErrOutOfStock signals that an item promised a pre-provisioned code and
	// none is left unsold. During webhook reconciliation this aborts the whole
	// transaction: money was captured but goods cannot be delivered, so the
	// failure must stay loud and operator-visible.
	ErrOutOfStock = errors.New("out of stock")

	// ErrGateway signals a failed, timed out or malformed payment gateway
	// exchange. Checkout surfaces it to the user as a generic retryable error.
	ErrGateway = errors.New("payment gateway error")

	// ErrValidation signals bad checkout input: empty cart, invisible item,
	// malformed delivery field. No state is mutated.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized signals rejected admin credentials or a bad webhook
	// Authorization header.
	ErrUnauthorized = errors.New("unauthorized")
)
