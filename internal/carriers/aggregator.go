package carriers

import (
	"context"
	"fmt"
	"strings"

	"sigorta_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Aggregator holds the ordered adapter registry, fans quote requests out to
// every capable adapter concurrently, and routes policy purchases to exactly
// one of them.
type Aggregator struct {
	adapters []Adapter
	log      *logger.Logger
}

// NewAggregator creates an aggregator over an ordered adapter registry.
// Registration order is significant: it decides purchase routing when two
// adapters ever share a carrier code, and the order of CarriersForProduct.
func NewAggregator(adapters []Adapter, log *logger.Logger) *Aggregator {
	return &Aggregator{adapters: adapters, log: log}
}

// settled is one adapter's outcome inside a fan-out.
type settled struct {
	adapter Adapter
	result  QuoteResult
	err     error
}

// GetQuotes filters the registry down to adapters that support the requested
// product (and, when given, appear in the carrier code allowlist), invokes
// each one concurrently, and merges all offers and per-carrier errors into a
// single result. One slow or failing carrier never blocks or drops another
// carrier's offers.
func (a *Aggregator) GetQuotes(ctx context.Context, req QuoteRequest, carrierCodes []string) QuoteResult {
	requestID := "quote-" + uuid.NewString()
	log := a.log.WithQuoteRequestID(requestID)

	targets := make([]Adapter, 0, len(a.adapters))
	for _, adapter := range a.adapters {
		if len(carrierCodes) > 0 && !containsCode(carrierCodes, adapter.CarrierCode()) {
			continue
		}
		if !adapter.SupportsProduct(req.Product) {
			continue
		}
		targets = append(targets, adapter)
	}

	if len(targets) == 0 {
		scope := "ALL"
		if len(carrierCodes) > 0 {
			scope = strings.Join(carrierCodes, ",")
		}
		log.Info("no carrier adapters available", "product", req.Product, "scope", scope)
		return QuoteResult{
			RequestID: requestID,
			Offers:    []QuoteOffer{},
			Errors: []QuoteError{{
				CarrierCode: scope,
				Message:     "No carrier adapters available for the requested product.",
			}},
		}
	}

	outcomes := make(chan settled, len(targets))
	for _, adapter := range targets {
		go func(adapter Adapter) {
			outcomes <- a.settle(ctx, adapter, req)
		}(adapter)
	}

	result := QuoteResult{RequestID: requestID, Offers: []QuoteOffer{}}
	for range targets {
		outcome := <-outcomes
		code := outcome.adapter.CarrierCode()

		if outcome.err != nil {
			log.CarrierError(code, outcome.err.Error())
			result.Errors = append(result.Errors, QuoteError{CarrierCode: code, Message: outcome.err.Error()})
			continue
		}

		result.Offers = append(result.Offers, outcome.result.Offers...)
		for _, quoteErr := range outcome.result.Errors {
			if quoteErr.CarrierCode == "" {
				quoteErr.CarrierCode = code
			}
			log.CarrierError(quoteErr.CarrierCode, quoteErr.Message)
			result.Errors = append(result.Errors, quoteErr)
		}
	}

	log.Info("quote aggregation complete",
		"product", req.Product,
		"adapters", len(targets),
		"offers", len(result.Offers),
		"errors", len(result.Errors),
	)
	return result
}

// settle invokes one adapter with a per-call copy of the request stamped with
// the adapter's own carrier code, converting any panic into an error so a
// misbehaving adapter cannot abort its siblings.
func (a *Aggregator) settle(ctx context.Context, adapter Adapter, req QuoteRequest) (outcome settled) {
	outcome.adapter = adapter

	defer func() {
		if recovered := recover(); recovered != nil {
			outcome.err = fmt.Errorf("adapter failure: %v", recovered)
		}
	}()

	stamped := req
	stamped.CarrierCode = adapter.CarrierCode()
	outcome.result = adapter.GetQuote(ctx, stamped)
	return outcome
}

// BuyPolicy routes the purchase to the single adapter whose carrier code
// matches the selected offer and that supports the offer's product. The first
// registered match wins; the adapter's own outcome propagates unmodified.
func (a *Aggregator) BuyPolicy(ctx context.Context, req PolicyPurchaseRequest) (PolicyPurchaseResult, error) {
	carrierCode := req.SelectedOffer.CarrierCode

	for _, adapter := range a.adapters {
		if adapter.CarrierCode() != carrierCode {
			continue
		}
		if !adapter.SupportsProduct(req.SelectedOffer.Product) {
			continue
		}
		return adapter.BuyPolicy(ctx, req)
	}

	return PolicyPurchaseResult{}, NewError(
		ErrNoAdapterForPurchase,
		carrierCode,
		fmt.Sprintf("No carrier adapter available for carrier=%s, product=%s", carrierCode, req.SelectedOffer.Product),
	)
}

// CarriersForProduct returns the carrier codes supporting a product, in
// registration order. It performs no network calls.
func (a *Aggregator) CarriersForProduct(product ProductCode) []string {
	codes := make([]string, 0, len(a.adapters))
	for _, adapter := range a.adapters {
		if adapter.SupportsProduct(product) {
			codes = append(codes, adapter.CarrierCode())
		}
	}
	return codes
}

func containsCode(codes []string, code string) bool {
	for _, candidate := range codes {
		if candidate == code {
			return true
		}
	}
	return false
}
