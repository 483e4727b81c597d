package carriers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sigorta_portal_backend/internal/config"
	"sigorta_portal_backend/platform/logger"
)

func newQuick(cfg config.QuickConfig) *QuickAdapter {
	return NewQuickAdapter(cfg, time.Second, logger.New("test"))
}

// quickServer serves the token endpoint plus scripted API routes.
func quickServer(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}
		handler, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handler(w, r)
	}))
}

func TestQuick_SupportedProductsFromConfig(t *testing.T) {
	adapter := newQuick(config.QuickConfig{Enabled: true, Products: []string{"TRAFFIC", "HEALTH", "bogus"}})

	if !adapter.SupportsProduct(ProductTraffic) || !adapter.SupportsProduct(ProductHealth) {
		t.Fatal("expected configured products supported")
	}
	if adapter.SupportsProduct(ProductCasco) {
		t.Fatal("expected CASCO excluded by explicit product list")
	}
}

func TestQuick_DefaultProducts(t *testing.T) {
	adapter := newQuick(config.QuickConfig{Enabled: true})

	if !adapter.SupportsProduct(ProductTraffic) || !adapter.SupportsProduct(ProductCasco) {
		t.Fatal("expected TRAFFIC and CASCO by default")
	}
	if adapter.SupportsProduct(ProductPet) {
		t.Fatal("expected PET unsupported by default")
	}
}

func TestQuick_DisabledQuote(t *testing.T) {
	adapter := newQuick(config.QuickConfig{Enabled: false})

	result := adapter.GetQuote(context.Background(), QuoteRequest{Product: ProductTraffic})

	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Message, "QUICK_ENABLED") {
		t.Fatalf("expected disablement error, got %+v", result)
	}
}

func TestQuick_MockModeQuote(t *testing.T) {
	adapter := newQuick(config.QuickConfig{
		Enabled:  true,
		MockMode: true,
		BaseURL:  "http://127.0.0.1:1",
	})

	result := adapter.GetQuote(context.Background(), QuoteRequest{Product: ProductCasco})

	if len(result.Offers) != 1 || len(result.Errors) != 0 {
		t.Fatalf("expected mock offer, got %+v", result)
	}
	offer := result.Offers[0]
	if offer.GrossPremium < 2400 || offer.GrossPremium > 2580 {
		t.Fatalf("expected CASCO mock premium in [2400,2580], got %f", offer.GrossPremium)
	}
	if offer.NetPremium != offer.GrossPremium-90 {
		t.Fatalf("expected net = gross-90, got %f", offer.NetPremium)
	}
}

func TestQuick_ProposalBuiltFromCanonicalRequest(t *testing.T) {
	var proposal map[string]any
	server := quickServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/policy/proposal": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&proposal)
			json.NewEncoder(w).Encode(map[string]any{
				"premium":         1234.5,
				"netPremium":      1100.0,
				"currency":        "TRY",
				"coverageSummary": "Trafik Sigortası",
				"policyNo":        "Q-77",
			})
		},
	})
	defer server.Close()

	adapter := newQuick(config.QuickConfig{Enabled: true, BaseURL: server.URL, ClientID: "id", ClientSecret: "s"})

	result := adapter.GetQuote(context.Background(), QuoteRequest{
		Product: ProductTraffic,
		InsuredPerson: InsuredPerson{
			NationalID:  "12345678901",
			BirthDate:   "1985-01-01",
			PhoneNumber: "0532 123 45 67",
			Email:       "test@example.com",
		},
		Vehicle: &Vehicle{Plate: "06XYZ42"},
	})

	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %+v", result.Errors)
	}
	offer := result.Offers[0]
	if offer.GrossPremium != 1234.5 || offer.NetPremium != 1100 {
		t.Fatalf("unexpected premiums: %+v", offer)
	}
	if offer.CoverageSummary != "Trafik Sigortası" {
		t.Fatalf("unexpected coverage summary %q", offer.CoverageSummary)
	}

	if proposal["productId"] != "101" {
		t.Fatalf("expected TRAFFIC mapped to product 101, got %v", proposal["productId"])
	}
	insurer, _ := proposal["insurer"].(map[string]any)
	if insurer["idNumber"] != "12345678901" {
		t.Fatalf("expected national id forwarded, got %v", insurer)
	}
	if insurer["phoneNumber"] != "+905321234567" {
		t.Fatalf("expected E.164 phone, got %v", insurer["phoneNumber"])
	}
}

func TestQuick_StringPremiumParsed(t *testing.T) {
	server := quickServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/policy/proposal": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"premium": "950,75"})
		},
	})
	defer server.Close()

	adapter := newQuick(config.QuickConfig{Enabled: true, BaseURL: server.URL})

	result := adapter.GetQuote(context.Background(), QuoteRequest{Product: ProductTraffic})

	if len(result.Offers) != 1 {
		t.Fatalf("expected offer, got %+v", result)
	}
	if result.Offers[0].GrossPremium != 950.75 {
		t.Fatalf("expected comma decimal parsed, got %f", result.Offers[0].GrossPremium)
	}
}

func TestQuick_NoPremiumWithoutFallback(t *testing.T) {
	server := quickServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/policy/proposal": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"status": "pending"})
		},
	})
	defer server.Close()

	adapter := newQuick(config.QuickConfig{Enabled: true, BaseURL: server.URL, FallbackPremium: false})

	result := adapter.GetQuote(context.Background(), QuoteRequest{Product: ProductTraffic})

	if len(result.Offers) != 0 || len(result.Errors) != 1 {
		t.Fatalf("expected premium failure, got %+v", result)
	}
}

func TestQuick_CarrierErrorMessageSurfaced(t *testing.T) {
	server := quickServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/policy/proposal": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "plaka bilgisi eksik"})
		},
	})
	defer server.Close()

	adapter := newQuick(config.QuickConfig{Enabled: true, BaseURL: server.URL})

	result := adapter.GetQuote(context.Background(), QuoteRequest{Product: ProductTraffic})

	if len(result.Errors) != 1 || result.Errors[0].Message != "plaka bilgisi eksik" {
		t.Fatalf("expected carrier message surfaced, got %+v", result.Errors)
	}
}

func TestQuick_BuyPolicyApprove(t *testing.T) {
	var approve map[string]any
	server := quickServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/policy/approve": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&approve)
			json.NewEncoder(w).Encode(map[string]any{
				"policyId":     "QP-9",
				"policyNumber": "QS-000123",
				"documents": []map[string]any{
					{"type": "POLICY_PDF", "url": "https://cdn.example/qp-9.pdf"},
				},
			})
		},
	})
	defer server.Close()

	adapter := newQuick(config.QuickConfig{Enabled: true, BaseURL: server.URL})

	result, err := adapter.BuyPolicy(context.Background(), PolicyPurchaseRequest{
		QuoteRequestID: "PROP-55",
		SelectedOffer:  QuoteOffer{CarrierCode: "QUICK_SIGORTA", Product: ProductCasco},
		Payment:        Payment{CardTokenID: "card-tok"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PolicyID != "QP-9" || result.CarrierPolicyNumber != "QS-000123" {
		t.Fatalf("unexpected identifiers: %+v", result)
	}
	if len(result.Documents) != 1 || result.Documents[0].URL != "https://cdn.example/qp-9.pdf" {
		t.Fatalf("expected document mapped, got %+v", result.Documents)
	}

	if approve["productId"] != "111" {
		t.Fatalf("expected CASCO mapped to 111, got %v", approve["productId"])
	}
	if approve["policyNo"] != "PROP-55" {
		t.Fatalf("expected proposal number forwarded, got %v", approve["policyNo"])
	}
	if approve["paymentType"] != "card" || approve["cardTokenId"] != "card-tok" {
		t.Fatalf("expected card payment fields, got %v", approve)
	}
}

func TestQuick_BuyPolicyRemoteFaultTyped(t *testing.T) {
	server := quickServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/policy/approve": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"message": "police zaten mevcut"})
		},
	})
	defer server.Close()

	adapter := newQuick(config.QuickConfig{Enabled: true, BaseURL: server.URL})

	_, err := adapter.BuyPolicy(context.Background(), PolicyPurchaseRequest{
		SelectedOffer: QuoteOffer{CarrierCode: "QUICK_SIGORTA", Product: ProductTraffic},
	})
	kind, ok := KindOf(err)
	if !ok || kind != ErrRemoteFault {
		t.Fatalf("expected remote fault, got %v", err)
	}
	if !strings.Contains(err.Error(), "police zaten mevcut") {
		t.Fatalf("expected carrier message, got %q", err.Error())
	}
}

func TestQuick_AuxiliaryEndpoints(t *testing.T) {
	server := quickServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/print/policy/print-type": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"types": []any{"POLICY", "GREEN_CARD"}})
		},
		"/api/policy/has-policy": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"hasPolicy": true})
		},
		"/api/common/encryption/key": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"key": "enc-key"})
		},
	})
	defer server.Close()

	adapter := newQuick(config.QuickConfig{Enabled: true, BaseURL: server.URL})
	ctx := context.Background()

	if data, err := adapter.GetPrintTypes(ctx, nil); err != nil || data["types"] == nil {
		t.Fatalf("print types failed: %v %v", data, err)
	}
	if data, err := adapter.HasPolicy(ctx, map[string]any{"idNumber": "1"}); err != nil || data["hasPolicy"] != true {
		t.Fatalf("has-policy failed: %v %v", data, err)
	}
	if data, err := adapter.GetEncryptionKey(ctx); err != nil || data["key"] != "enc-key" {
		t.Fatalf("encryption key failed: %v %v", data, err)
	}
}

func TestQuick_CallUtilityURLPrefixGuard(t *testing.T) {
	server := quickServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/print/policy": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"printed": true, "no": r.URL.Query().Get("no")})
		},
	})
	defer server.Close()

	adapter := newQuick(config.QuickConfig{Enabled: true, BaseURL: server.URL})
	ctx := context.Background()

	data, err := adapter.CallUtilityURL(ctx, server.URL+"/api/print/policy", "GET", map[string]any{"no": "5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data["printed"] != true || data["no"] != "5" {
		t.Fatalf("unexpected response: %v", data)
	}

	_, err = adapter.CallUtilityURL(ctx, "https://evil.example/api/print/policy", "GET", nil)
	kind, ok := KindOf(err)
	if !ok || kind != ErrConfiguration {
		t.Fatalf("expected rejection of foreign URL, got %v", err)
	}
}
