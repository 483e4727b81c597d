// Package carriers implements the carrier adapter and aggregation engine: one
// adapter per external insurance carrier, all satisfying a shared contract,
// plus an aggregator that fans a quote request out to every capable adapter
// and routes policy purchases to exactly one of them.
package carriers

import "context"

// Adapter is the capability contract every carrier integration satisfies.
//
// GetQuote never returns an error for ordinary business failures (disabled
// integration, missing configuration, remote fault); it folds them into the
// result's Errors list instead so that quoting can be fanned out safely.
// BuyPolicy targets a single carrier and returns typed errors directly.
type Adapter interface {
	// CarrierCode is the adapter's immutable identity, stable for its
	// lifetime.
	CarrierCode() string

	// SupportsProduct reports whether the carrier is currently enabled and
	// integrated for the product. It must be cheap and side-effect free;
	// the aggregator calls it once per adapter per aggregation.
	SupportsProduct(product ProductCode) bool

	GetQuote(ctx context.Context, req QuoteRequest) QuoteResult

	BuyPolicy(ctx context.Context, req PolicyPurchaseRequest) (PolicyPurchaseResult, error)
}
