package carriers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// StaticRateAdapter prices offers from an in-memory base-premium table. It is
// used for panel carriers that are quoted on negotiated flat rates rather
// than a live integration; one instance per external brand.
type StaticRateAdapter struct {
	code          string
	policyPrefix  string
	variance      int
	netDeduction  float64
	basePremiums  map[ProductCode]float64
	coverageExtra map[string]any
}

// StaticRateConfig describes one panel carrier.
type StaticRateConfig struct {
	CarrierCode   string
	PolicyPrefix  string
	Variance      int
	NetDeduction  float64
	BasePremiums  map[ProductCode]float64
	CoverageExtra map[string]any
}

// NewStaticRateAdapter creates a panel carrier adapter.
func NewStaticRateAdapter(cfg StaticRateConfig) *StaticRateAdapter {
	return &StaticRateAdapter{
		code:          cfg.CarrierCode,
		policyPrefix:  cfg.PolicyPrefix,
		variance:      cfg.Variance,
		netDeduction:  cfg.NetDeduction,
		basePremiums:  cfg.BasePremiums,
		coverageExtra: cfg.CoverageExtra,
	}
}

// NewAllianzAdapter creates the Allianz panel adapter with its negotiated
// base premiums.
func NewAllianzAdapter() *StaticRateAdapter {
	return NewStaticRateAdapter(StaticRateConfig{
		CarrierCode:  "ALLIANZ",
		PolicyPrefix: "ALZ",
		Variance:     150,
		NetDeduction: 80,
		BasePremiums: map[ProductCode]float64{
			ProductTraffic: 900,
			ProductHealth:  1500,
			ProductLife:    700,
			ProductHome:    800,
			ProductPet:     400,
		},
		CoverageExtra: map[string]any{"assistance": true},
	})
}

// NewAxaAdapter creates the AXA panel adapter with its negotiated base
// premiums.
func NewAxaAdapter() *StaticRateAdapter {
	return NewStaticRateAdapter(StaticRateConfig{
		CarrierCode:  "AXA",
		PolicyPrefix: "AXA",
		Variance:     120,
		NetDeduction: 60,
		BasePremiums: map[ProductCode]float64{
			ProductTraffic: 850,
			ProductHealth:  1450,
			ProductLife:    650,
			ProductHome:    780,
			ProductPet:     380,
		},
		CoverageExtra: map[string]any{"roadside": true},
	})
}

func (s *StaticRateAdapter) CarrierCode() string {
	return s.code
}

func (s *StaticRateAdapter) SupportsProduct(product ProductCode) bool {
	_, ok := s.basePremiums[product]
	return ok
}

func (s *StaticRateAdapter) GetQuote(_ context.Context, req QuoteRequest) QuoteResult {
	base, ok := s.basePremiums[req.Product]
	if !ok {
		// SupportsProduct already excludes this; kept for direct callers.
		return QuoteResult{
			RequestID: s.requestID(),
			Offers:    []QuoteOffer{},
			Errors: []QuoteError{{
				CarrierCode: s.code,
				Message:     fmt.Sprintf("%s has no rate table for product %s", s.code, req.Product),
			}},
		}
	}

	grossPremium := base + float64(rand.IntN(s.variance+1))

	return QuoteResult{
		RequestID: s.requestID(),
		Offers: []QuoteOffer{{
			CarrierCode:        s.code,
			CarrierProductCode: fmt.Sprintf("%s_%s", s.code, req.Product),
			Product:            req.Product,
			GrossPremium:       grossPremium,
			NetPremium:         grossPremium - s.netDeduction,
			Currency:           "TRY",
			CoverageSummary:    fmt.Sprintf("%s %s coverage", s.code, req.Product),
			CoverageDetails:    s.coverageExtra,
			Warnings:           []string{},
			RawCarrierData:     map[string]any{"echoedRequest": req},
		}},
		Errors: []QuoteError{},
	}
}

func (s *StaticRateAdapter) BuyPolicy(_ context.Context, req PolicyPurchaseRequest) (PolicyPurchaseResult, error) {
	now := time.Now().UTC()

	return PolicyPurchaseResult{
		PolicyID:            s.code + "-" + uuid.NewString(),
		CarrierCode:         s.code,
		CarrierPolicyNumber: fmt.Sprintf("%s-%06d", s.policyPrefix, rand.IntN(1_000_000)),
		EffectiveFrom:       now.Format(time.RFC3339),
		EffectiveTo:         now.AddDate(1, 0, 0).Format(time.RFC3339),
		Documents:           []PolicyDocument{},
		RawCarrierData:      map[string]any{"echoedRequest": req},
	}, nil
}

func (s *StaticRateAdapter) requestID() string {
	return fmt.Sprintf("%s-%d", s.code, time.Now().UnixMilli())
}

var _ Adapter = (*StaticRateAdapter)(nil)
