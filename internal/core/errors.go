package core

import "errors"

var (
	// ErrMissingCredentials indicates api key/secret were absent at client
	// construction. Fatal; never retried.
	ErrMissingCredentials = errors.New("missing api credentials")
	// ErrInvalidSide indicates the order side is neither buy nor sell.
	ErrInvalidSide = errors.New("invalid side")
	// ErrInvalidPriceOrQty indicates a non-positive price or quantity on a
	// limit order, caught before normalization.
	ErrInvalidPriceOrQty = errors.New("invalid price or qty")
	// ErrQtyRejected indicates step/minimum normalization reduced the
	// requested quantity to zero. A business-rule rejection, not a transport
	// failure: retrying the same size cannot succeed.
	ErrQtyRejected = errors.New("qty below step or minimum")
	// ErrMissingOrderRef indicates neither an exchange order id nor a client
	// order id was supplied to a cancel/query call.
	ErrMissingOrderRef = errors.New("order id or client order id required")
)
