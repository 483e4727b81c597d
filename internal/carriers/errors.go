package carriers

import (
	"errors"
	"fmt"

	"sigorta_portal_backend/platform/apperr"
)

// ErrorKind classifies a carrier-level failure.
type ErrorKind int

const (
	// ErrConfiguration means the integration is disabled or an endpoint or
	// credential is missing. No network call was attempted.
	ErrConfiguration ErrorKind = iota
	// ErrRemoteFault means the carrier responded with a SOAP fault or a
	// non-2xx REST status.
	ErrRemoteFault
	// ErrTransport means the carrier could not be reached at the network
	// level.
	ErrTransport
	// ErrUnsupportedProduct means no adapter declares support for the
	// requested product.
	ErrUnsupportedProduct
	// ErrNoAdapterForPurchase means a purchase targeted a carrier/product
	// combination with no matching adapter.
	ErrNoAdapterForPurchase
)

// Error is a typed carrier failure. Quoting converts these into QuoteError
// entries; purchasing returns them to the caller as-is.
type Error struct {
	Kind        ErrorKind
	CarrierCode string
	Message     string
	Err         error
}

func (e *Error) Error() string {
	if e.CarrierCode != "" {
		return fmt.Sprintf("%s: %s", e.CarrierCode, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a typed carrier error.
func NewError(kind ErrorKind, carrierCode, message string) *Error {
	return &Error{Kind: kind, CarrierCode: carrierCode, Message: message}
}

// WrapError creates a typed carrier error wrapping an underlying cause.
func WrapError(kind ErrorKind, carrierCode, message string, err error) *Error {
	return &Error{Kind: kind, CarrierCode: carrierCode, Message: message, Err: err}
}

// KindOf extracts the error kind. The second return is false when err is not
// a carrier error.
func KindOf(err error) (ErrorKind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// ToAppError maps a carrier error onto the application error model so the
// HTTP layer can derive a status code from it.
func ToAppError(err error) *apperr.Error {
	var ce *Error
	if !errors.As(err, &ce) {
		return apperr.Wrap(apperr.KindInternal, err.Error(), err)
	}

	switch ce.Kind {
	case ErrConfiguration:
		return apperr.Wrap(apperr.KindUnavailable, ce.Message, err)
	case ErrRemoteFault:
		return apperr.Wrap(apperr.KindUpstream, ce.Message, err)
	case ErrTransport:
		return apperr.Wrap(apperr.KindUnavailable, ce.Message, err)
	case ErrUnsupportedProduct, ErrNoAdapterForPurchase:
		return apperr.Wrap(apperr.KindNotFound, ce.Message, err)
	default:
		return apperr.Wrap(apperr.KindInternal, ce.Message, err)
	}
}
