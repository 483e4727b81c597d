package carriers

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"sigorta_portal_backend/internal/carriers/restauth"
	"sigorta_portal_backend/internal/config"
	"sigorta_portal_backend/platform/logger"
	"sigorta_portal_backend/platform/phone"
)

const quickCarrierCode = "QUICK_SIGORTA"

// QuickAdapter integrates Quick Sigorta over its OAuth2-protected REST API.
// Besides quoting and purchasing it exposes the documented auxiliary
// endpoints (policy printing, has-policy lookup, encryption key fetch), all
// sharing one token cache and base URL.
type QuickAdapter struct {
	cfg       config.QuickConfig
	supported []ProductCode
	rest      *restauth.Client
	log       *logger.Logger
}

// NewQuickAdapter creates the Quick Sigorta adapter from resolved config.
func NewQuickAdapter(cfg config.QuickConfig, timeout time.Duration, log *logger.Logger) *QuickAdapter {
	supported := make([]ProductCode, 0, len(cfg.Products))
	for _, raw := range cfg.Products {
		if product, ok := ParseProductCode(raw); ok {
			supported = append(supported, product)
		}
	}
	if len(supported) == 0 {
		supported = []ProductCode{ProductTraffic, ProductCasco}
	}

	return &QuickAdapter{
		cfg:       cfg,
		supported: supported,
		rest: restauth.NewClient(restauth.Config{
			BaseURL:      cfg.BaseURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Timeout:      timeout,
		}),
		log: log.WithCarrier(quickCarrierCode),
	}
}

func (q *QuickAdapter) CarrierCode() string {
	return quickCarrierCode
}

func (q *QuickAdapter) SupportsProduct(product ProductCode) bool {
	for _, candidate := range q.supported {
		if candidate == product {
			return true
		}
	}
	return false
}

// BaseURL returns the configured API base; the utility proxy uses it for
// prefix matching.
func (q *QuickAdapter) BaseURL() string {
	return q.rest.BaseURL()
}

func (q *QuickAdapter) GetQuote(ctx context.Context, req QuoteRequest) QuoteResult {
	requestID := fmt.Sprintf("quick-%d", time.Now().UnixMilli())

	fail := func(message string) QuoteResult {
		return QuoteResult{
			RequestID: requestID,
			Offers:    []QuoteOffer{},
			Errors:    []QuoteError{{CarrierCode: quickCarrierCode, Message: message}},
		}
	}

	if !q.cfg.Enabled {
		return fail("Quick Sigorta integration disabled. Set QUICK_ENABLED=true.")
	}
	if q.cfg.BaseURL == "" {
		return fail("Missing QUICK_API_BASE configuration.")
	}

	if q.cfg.MockMode {
		grossPremium := q.randomPremium(req.Product)
		return QuoteResult{
			RequestID: requestID,
			Offers: []QuoteOffer{{
				CarrierCode:        quickCarrierCode,
				CarrierProductCode: fmt.Sprintf("%s_%s", quickCarrierCode, req.Product),
				Product:            req.Product,
				GrossPremium:       grossPremium,
				NetPremium:         grossPremium - 90,
				Currency:           "TRY",
				CoverageSummary:    fmt.Sprintf("Quick %s coverage (mock)", req.Product),
				Warnings:           []string{},
				RawCarrierData:     map[string]any{"mode": "mock"},
			}},
			Errors: []QuoteError{},
		}
	}

	proposal := fieldMap(req.CustomFields, "proposalPayload")
	if proposal == nil {
		proposal = q.buildMinimalProposal(req)
	}
	if proposal == nil {
		return fail("Missing proposal payload for Quick Sigorta. Provide customFields.proposalPayload.")
	}

	start := time.Now()
	data, err := q.rest.PostJSON(ctx, q.cfg.BaseURL+"/api/policy/proposal", proposal)
	q.log.CarrierCall(quickCarrierCode, "proposal", err == nil, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return fail(err.Error())
	}

	gross, grossOK := numberField(data, "premium", "grossPremium")
	if !grossOK {
		if !q.cfg.FallbackPremium {
			return fail("Quick Sigorta response contained no premium field")
		}
		gross = q.randomPremium(req.Product)
	}
	net, netOK := numberField(data, "netPremium", "premium")
	if !netOK {
		net = gross - 90
	}

	currency, _ := data["currency"].(string)
	if currency == "" {
		currency = "TRY"
	}
	coverageSummary, _ := data["coverageSummary"].(string)
	if coverageSummary == "" {
		coverageSummary = "Quick Sigorta Teklif"
	}

	return QuoteResult{
		RequestID: requestID,
		Offers: []QuoteOffer{{
			CarrierCode:        quickCarrierCode,
			CarrierProductCode: fmt.Sprintf("%s_%s", quickCarrierCode, req.Product),
			Product:            req.Product,
			GrossPremium:       gross,
			NetPremium:         net,
			Currency:           currency,
			CoverageSummary:    coverageSummary,
			CoverageDetails:    data,
			Warnings:           []string{},
			RawCarrierData:     data,
		}},
		Errors: []QuoteError{},
	}
}

func (q *QuickAdapter) BuyPolicy(ctx context.Context, req PolicyPurchaseRequest) (PolicyPurchaseResult, error) {
	if !q.cfg.Enabled {
		return PolicyPurchaseResult{}, NewError(ErrConfiguration, quickCarrierCode, "Quick Sigorta integration disabled. Set QUICK_ENABLED=true.")
	}
	if q.cfg.BaseURL == "" {
		return PolicyPurchaseResult{}, NewError(ErrConfiguration, quickCarrierCode, "Missing QUICK_API_BASE configuration.")
	}

	now := time.Now().UTC()

	if q.cfg.MockMode {
		return PolicyPurchaseResult{
			PolicyID:            fmt.Sprintf("QUICK-%d", now.UnixMilli()),
			CarrierCode:         quickCarrierCode,
			CarrierPolicyNumber: fmt.Sprintf("QS-%06d", rand.IntN(1_000_000)),
			EffectiveFrom:       now.Format(time.RFC3339),
			EffectiveTo:         now.AddDate(1, 0, 0).Format(time.RFC3339),
			Documents:           []PolicyDocument{},
			RawCarrierData:      map[string]any{"mode": "mock", "selectedOffer": req.SelectedOffer},
		}, nil
	}

	approve := fieldMap(req.CustomFields, "approvePayload")
	if approve == nil {
		approve = q.buildMinimalApprove(req)
	}

	start := time.Now()
	data, err := q.rest.PostJSON(ctx, q.cfg.BaseURL+"/api/policy/approve", approve)
	q.log.CarrierCall(quickCarrierCode, "approve", err == nil, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return PolicyPurchaseResult{}, q.classify(err, "Quick Sigorta policy creation failed")
	}

	policyID, _ := data["policyId"].(string)
	if policyID == "" {
		policyID = fmt.Sprintf("QUICK-%d", now.UnixMilli())
	}
	carrierPolicyNumber, _ := data["carrierPolicyNumber"].(string)
	if carrierPolicyNumber == "" {
		carrierPolicyNumber, _ = data["policyNumber"].(string)
	}
	if carrierPolicyNumber == "" {
		carrierPolicyNumber = fmt.Sprintf("QS-%06d", rand.IntN(1_000_000))
	}
	effectiveFrom, _ := data["effectiveFrom"].(string)
	if effectiveFrom == "" {
		effectiveFrom = now.Format(time.RFC3339)
	}
	effectiveTo, _ := data["effectiveTo"].(string)
	if effectiveTo == "" {
		effectiveTo = now.AddDate(1, 0, 0).Format(time.RFC3339)
	}

	documents := []PolicyDocument{}
	if rawDocs, ok := data["documents"].([]any); ok {
		for _, rawDoc := range rawDocs {
			docMap, ok := rawDoc.(map[string]any)
			if !ok {
				continue
			}
			docType, _ := docMap["type"].(string)
			docURL, _ := docMap["url"].(string)
			if docURL != "" {
				documents = append(documents, PolicyDocument{Type: docType, URL: docURL})
			}
		}
	}

	return PolicyPurchaseResult{
		PolicyID:            policyID,
		CarrierCode:         quickCarrierCode,
		CarrierPolicyNumber: carrierPolicyNumber,
		EffectiveFrom:       effectiveFrom,
		EffectiveTo:         effectiveTo,
		Documents:           documents,
		RawCarrierData:      data,
	}, nil
}

// Auxiliary read-only operations documented alongside quoting. They share the
// token cache and base URL and are reachable through the utility proxy.

// GetPrintTypes lists the print variants available for a policy.
func (q *QuickAdapter) GetPrintTypes(ctx context.Context, params map[string]string) (map[string]any, error) {
	return q.authedGet(ctx, "/api/print/policy/print-type", params)
}

// PrintPolicy renders a policy document.
func (q *QuickAdapter) PrintPolicy(ctx context.Context, params map[string]string) (map[string]any, error) {
	return q.authedGet(ctx, "/api/print/policy", params)
}

// SendPolicy asks the carrier to deliver policy documents by email or SMS.
func (q *QuickAdapter) SendPolicy(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return q.authedPost(ctx, "/api/print/policy/send", payload)
}

// HasPolicy checks whether the person already holds a policy for a product.
func (q *QuickAdapter) HasPolicy(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return q.authedPost(ctx, "/api/policy/has-policy", payload)
}

// GetEncryptionKey fetches the key used for card-data encryption.
func (q *QuickAdapter) GetEncryptionKey(ctx context.Context) (map[string]any, error) {
	return q.authedGet(ctx, "/api/common/encryption/key", nil)
}

// CallUtilityURL forwards a utility-proxy request through the authenticated
// client. The URL must live under this carrier's base; everything else is
// rejected before any call is attempted.
func (q *QuickAdapter) CallUtilityURL(ctx context.Context, rawURL, method string, params map[string]any) (map[string]any, error) {
	if q.cfg.BaseURL == "" || !strings.HasPrefix(rawURL, q.cfg.BaseURL) {
		return nil, NewError(ErrConfiguration, quickCarrierCode, "URL not allowed for utility proxy")
	}

	if strings.EqualFold(method, http.MethodPost) {
		data, err := q.rest.PostJSON(ctx, rawURL, params)
		if err != nil {
			return nil, q.classify(err, "Quick Sigorta utility call failed")
		}
		return data, nil
	}

	query := make(map[string]string, len(params))
	for key := range params {
		query[key] = fieldString(params, key)
	}
	data, err := q.rest.GetJSON(ctx, rawURL, query)
	if err != nil {
		return nil, q.classify(err, "Quick Sigorta utility call failed")
	}
	return data, nil
}

func (q *QuickAdapter) authedGet(ctx context.Context, path string, params map[string]string) (map[string]any, error) {
	if q.cfg.BaseURL == "" {
		return nil, NewError(ErrConfiguration, quickCarrierCode, "Missing QUICK_API_BASE")
	}
	data, err := q.rest.GetJSON(ctx, q.cfg.BaseURL+path, params)
	if err != nil {
		return nil, q.classify(err, "Quick Sigorta call failed")
	}
	return data, nil
}

func (q *QuickAdapter) authedPost(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	if q.cfg.BaseURL == "" {
		return nil, NewError(ErrConfiguration, quickCarrierCode, "Missing QUICK_API_BASE")
	}
	data, err := q.rest.PostJSON(ctx, q.cfg.BaseURL+path, payload)
	if err != nil {
		return nil, q.classify(err, "Quick Sigorta call failed")
	}
	return data, nil
}

// classify maps transport-layer errors onto the carrier error taxonomy.
func (q *QuickAdapter) classify(err error, fallback string) error {
	var statusErr *restauth.StatusError
	if errors.As(err, &statusErr) {
		message := statusErr.Message
		if message == "" {
			message = fmt.Sprintf("%s: HTTP %d", fallback, statusErr.Status)
		}
		return WrapError(ErrRemoteFault, quickCarrierCode, message, err)
	}
	return WrapError(ErrTransport, quickCarrierCode, err.Error(), err)
}

func (q *QuickAdapter) buildMinimalProposal(req QuoteRequest) map[string]any {
	productID := quickProductID(req.Product)
	if productID == "" {
		return nil
	}

	idNumber := req.InsuredPerson.NationalID
	if idNumber == "" {
		idNumber = req.InsuredPerson.FullName
	}

	proposal := map[string]any{
		"productId": productID,
		"insurer": map[string]any{
			"idNumber":    idNumber,
			"birthDate":   req.InsuredPerson.BirthDate,
			"email":       req.InsuredPerson.Email,
			"phoneNumber": phone.NormalizeE164(req.InsuredPerson.PhoneNumber),
		},
	}
	if req.Vehicle != nil {
		proposal["vehicle"] = req.Vehicle
	}
	if req.CustomFields != nil {
		proposal["customFields"] = req.CustomFields
	}
	return proposal
}

func (q *QuickAdapter) buildMinimalApprove(req PolicyPurchaseRequest) map[string]any {
	policyNo := req.QuoteRequestID
	if raw, ok := req.SelectedOffer.RawCarrierData.(map[string]any); ok && policyNo == "" {
		if value, ok := raw["policyNo"].(string); ok {
			policyNo = value
		} else if value, ok := raw["policyNumber"].(string); ok {
			policyNo = value
		}
	}

	paymentType := "cash"
	if req.Payment.CardTokenID != "" {
		paymentType = "card"
	}

	approve := map[string]any{
		"productId":   quickProductID(req.SelectedOffer.Product),
		"policyNo":    policyNo,
		"renewalNo":   0,
		"endorsNo":    0,
		"paymentType": paymentType,
	}
	if req.Payment.CardTokenID != "" {
		approve["cardTokenId"] = req.Payment.CardTokenID
	}
	return approve
}

// quickProductID maps canonical products onto Quick's numeric product ids.
func quickProductID(product ProductCode) string {
	switch product {
	case ProductTraffic:
		return "101"
	case ProductCasco:
		return "111"
	case ProductHealth:
		return "600" // travel health, closest available
	case ProductHome:
		return "202" // DASK
	case ProductLife:
		return "500" // personal accident, closest available
	default:
		return ""
	}
}

func (q *QuickAdapter) randomPremium(product ProductCode) float64 {
	base := 1500.0
	switch product {
	case ProductTraffic:
		base = 950
	case ProductCasco:
		base = 2400
	}
	return base + float64(rand.IntN(181))
}

// numberField returns the first present numeric field among names.
func numberField(data map[string]any, names ...string) (float64, bool) {
	for _, name := range names {
		switch value := data[name].(type) {
		case float64:
			return value, true
		case string:
			if parsed, ok := parseDecimal(value); ok {
				return parsed, true
			}
		}
	}
	return 0, false
}

var _ Adapter = (*QuickAdapter)(nil)
