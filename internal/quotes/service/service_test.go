package service

import (
	"context"
	"testing"

	"sigorta_portal_backend/internal/carriers"
	"sigorta_portal_backend/internal/quotes/transport"
	"sigorta_portal_backend/platform/apperr"
	"sigorta_portal_backend/platform/logger"
)

// captureAdapter records the request it receives and answers with one offer.
type captureAdapter struct {
	code string
	last carriers.QuoteRequest
}

func (c *captureAdapter) CarrierCode() string                       { return c.code }
func (c *captureAdapter) SupportsProduct(carriers.ProductCode) bool { return true }

func (c *captureAdapter) GetQuote(_ context.Context, req carriers.QuoteRequest) carriers.QuoteResult {
	c.last = req
	return carriers.QuoteResult{
		Offers: []carriers.QuoteOffer{{CarrierCode: c.code, Product: req.Product}},
		Errors: []carriers.QuoteError{},
	}
}

func (c *captureAdapter) BuyPolicy(_ context.Context, req carriers.PolicyPurchaseRequest) (carriers.PolicyPurchaseResult, error) {
	return carriers.PolicyPurchaseResult{PolicyID: "P-1", CarrierCode: c.code}, nil
}

func newService(adapters ...carriers.Adapter) (*Service, *carriers.Aggregator) {
	log := logger.New("test")
	agg := carriers.NewAggregator(adapters, log)
	return New(agg, log), agg
}

func TestCreateQuote_InsurerDefaultsToInsured(t *testing.T) {
	adapter := &captureAdapter{code: "CAP"}
	svc, _ := newService(adapter)

	_, err := svc.CreateQuote(context.Background(), transport.CreateQuoteRequest{
		Product:       "TRAFFIC",
		InsuredPerson: transport.InsuredPersonRequest{FullName: "Ayşe Yılmaz", NationalID: "123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if adapter.last.Insurer == nil {
		t.Fatal("expected insurer defaulted")
	}
	if adapter.last.Insurer.FullName != "Ayşe Yılmaz" {
		t.Fatalf("expected insurer copied from insured, got %+v", adapter.last.Insurer)
	}
}

func TestCreateQuote_ExplicitInsurerKept(t *testing.T) {
	adapter := &captureAdapter{code: "CAP"}
	svc, _ := newService(adapter)

	_, err := svc.CreateQuote(context.Background(), transport.CreateQuoteRequest{
		Product:       "HEALTH",
		InsuredPerson: transport.InsuredPersonRequest{FullName: "Çocuk Yılmaz"},
		Insurer:       &transport.InsuredPersonRequest{FullName: "Veli Yılmaz"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if adapter.last.Insurer == nil || adapter.last.Insurer.FullName != "Veli Yılmaz" {
		t.Fatalf("expected explicit insurer preserved, got %+v", adapter.last.Insurer)
	}
}

func TestCreateQuote_InsuredsLiftedFromCustomFields(t *testing.T) {
	adapter := &captureAdapter{code: "CAP"}
	svc, _ := newService(adapter)

	_, err := svc.CreateQuote(context.Background(), transport.CreateQuoteRequest{
		Product:       "HEALTH",
		InsuredPerson: transport.InsuredPersonRequest{FullName: "Veli Yılmaz"},
		CustomFields: map[string]any{
			"insureds": []any{
				map[string]any{"fullName": "Çocuk Bir", "role": "CHILD"},
				map[string]any{"role": "ignored, no name"},
				"not a map",
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(adapter.last.Insureds) != 1 {
		t.Fatalf("expected 1 lifted insured, got %d", len(adapter.last.Insureds))
	}
	if adapter.last.Insureds[0].FullName != "Çocuk Bir" || adapter.last.Insureds[0].Role != "CHILD" {
		t.Fatalf("unexpected lifted insured %+v", adapter.last.Insureds[0])
	}
}

func TestCreateQuote_ExplicitInsuredsWinOverCustomFields(t *testing.T) {
	adapter := &captureAdapter{code: "CAP"}
	svc, _ := newService(adapter)

	_, err := svc.CreateQuote(context.Background(), transport.CreateQuoteRequest{
		Product:       "HEALTH",
		InsuredPerson: transport.InsuredPersonRequest{FullName: "Veli"},
		Insureds: []transport.AdditionalInsuredRequest{
			{InsuredPersonRequest: transport.InsuredPersonRequest{FullName: "Explicit"}, Role: "SPOUSE"},
		},
		CustomFields: map[string]any{
			"insureds": []any{map[string]any{"fullName": "FromCustom"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(adapter.last.Insureds) != 1 || adapter.last.Insureds[0].FullName != "Explicit" {
		t.Fatalf("expected explicit insureds to win, got %+v", adapter.last.Insureds)
	}
}

func TestCreateQuote_UnknownProduct(t *testing.T) {
	svc, _ := newService(&captureAdapter{code: "CAP"})

	_, err := svc.CreateQuote(context.Background(), transport.CreateQuoteRequest{
		Product:       "SPACESHIP",
		InsuredPerson: transport.InsuredPersonRequest{FullName: "X"},
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestCreateQuote_VehicleMapped(t *testing.T) {
	adapter := &captureAdapter{code: "CAP"}
	svc, _ := newService(adapter)

	_, err := svc.CreateQuote(context.Background(), transport.CreateQuoteRequest{
		Product:       "CASCO",
		InsuredPerson: transport.InsuredPersonRequest{FullName: "X"},
		Vehicle:       &transport.VehicleRequest{Plate: "34ABC123", ModelYear: 2022, Brand: "Fiat"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if adapter.last.Vehicle == nil || adapter.last.Vehicle.Plate != "34ABC123" || adapter.last.Vehicle.ModelYear != 2022 {
		t.Fatalf("expected vehicle mapped, got %+v", adapter.last.Vehicle)
	}
}

func TestPurchasePolicy_RoutesToCarrier(t *testing.T) {
	adapter := &captureAdapter{code: "CAP"}
	svc, _ := newService(adapter)

	result, err := svc.PurchasePolicy(context.Background(), transport.PurchasePolicyRequest{
		SelectedOffer: transport.SelectedOfferRequest{CarrierCode: "CAP", Product: "TRAFFIC"},
		InsuredPerson: transport.InsuredPersonRequest{FullName: "X"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PolicyID != "P-1" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPurchasePolicy_NoAdapterMappedToAppError(t *testing.T) {
	svc, _ := newService(&captureAdapter{code: "CAP"})

	_, err := svc.PurchasePolicy(context.Background(), transport.PurchasePolicyRequest{
		SelectedOffer: transport.SelectedOfferRequest{CarrierCode: "GHOST", Product: "TRAFFIC"},
		InsuredPerson: transport.InsuredPersonRequest{FullName: "X"},
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCarriersForProduct(t *testing.T) {
	svc, _ := newService(&captureAdapter{code: "ONE"}, &captureAdapter{code: "TWO"})

	result, err := svc.CarriersForProduct("LIFE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Carriers) != 2 || result.Carriers[0] != "ONE" {
		t.Fatalf("unexpected carriers %v", result.Carriers)
	}

	if _, err := svc.CarriersForProduct("nope"); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for unknown product, got %v", err)
	}
}
