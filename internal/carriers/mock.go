package carriers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// MockAdapter is the offline carrier used for local testing. It supports
// every product and fabricates deterministic-shaped offers with randomized
// premiums, and doubles as the template for the real adapters' mock modes.
type MockAdapter struct{}

// NewMockAdapter creates the mock carrier adapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

func (m *MockAdapter) CarrierCode() string {
	return "MOCK"
}

func (m *MockAdapter) SupportsProduct(ProductCode) bool {
	return true
}

func (m *MockAdapter) GetQuote(_ context.Context, req QuoteRequest) QuoteResult {
	grossPremium := 500 + float64(rand.IntN(201))

	return QuoteResult{
		RequestID: fmt.Sprintf("mock-%d", time.Now().UnixMilli()),
		Offers: []QuoteOffer{{
			CarrierCode:        m.CarrierCode(),
			CarrierProductCode: "MOCK_PRODUCT",
			Product:            req.Product,
			GrossPremium:       grossPremium,
			NetPremium:         grossPremium - 50,
			Currency:           "TRY",
			CoverageSummary:    "Mock coverage summary",
			CoverageDetails:    map[string]any{"includesRoadside": true},
			Warnings:           []string{},
			RawCarrierData:     map[string]any{"echoedRequest": req},
		}},
		Errors: []QuoteError{},
	}
}

func (m *MockAdapter) BuyPolicy(_ context.Context, req PolicyPurchaseRequest) (PolicyPurchaseResult, error) {
	now := time.Now().UTC()

	return PolicyPurchaseResult{
		PolicyID:            "MOCK-" + uuid.NewString(),
		CarrierCode:         m.CarrierCode(),
		CarrierPolicyNumber: fmt.Sprintf("POL-%06d", rand.IntN(1_000_000)),
		EffectiveFrom:       now.Format(time.RFC3339),
		EffectiveTo:         now.AddDate(1, 0, 0).Format(time.RFC3339),
		Documents:           []PolicyDocument{},
		RawCarrierData:      map[string]any{"echoedRequest": req},
	}, nil
}

var _ Adapter = (*MockAdapter)(nil)
