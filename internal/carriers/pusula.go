package carriers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"sigorta_portal_backend/internal/carriers/soap"
	"sigorta_portal_backend/internal/config"
	"sigorta_portal_backend/platform/logger"
	"sigorta_portal_backend/platform/phone"

	"github.com/beevik/etree"
)

const pusulaCarrierCode = "TURKEY_INSURANCE"

// PusulaAdapter integrates Türkiye Sigorta through its Pusula SOAP services.
// Quoting uses teklifOlustur and purchasing policeTeklifOlustur; both wrap
// the same sigortali/saglik payload.
type PusulaAdapter struct {
	cfg  config.PusulaConfig
	soap *soap.Client
	log  *logger.Logger
}

// NewPusulaAdapter creates the Türkiye Sigorta Pusula adapter from resolved
// config.
func NewPusulaAdapter(cfg config.PusulaConfig, timeout time.Duration, log *logger.Logger) *PusulaAdapter {
	return &PusulaAdapter{
		cfg: cfg,
		soap: soap.NewClient(
			cfg.Endpoint,
			soap.Credentials{Username: cfg.Username, Password: cfg.Password},
			soap.Options{MockMode: cfg.MockMode, Timeout: timeout},
		),
		log: log.WithCarrier(pusulaCarrierCode),
	}
}

func (p *PusulaAdapter) CarrierCode() string {
	return pusulaCarrierCode
}

// SupportsProduct reports HEALTH only. Disablement is reported from GetQuote
// and BuyPolicy, not hidden here.
func (p *PusulaAdapter) SupportsProduct(product ProductCode) bool {
	return product == ProductHealth
}

func (p *PusulaAdapter) productCode() string {
	if p.cfg.ProductCode != "" {
		return p.cfg.ProductCode
	}
	return pusulaCarrierCode + "_HEALTH"
}

func (p *PusulaAdapter) GetQuote(ctx context.Context, req QuoteRequest) QuoteResult {
	requestID := fmt.Sprintf("pusula-%d", time.Now().UnixMilli())

	fail := func(message string) QuoteResult {
		return QuoteResult{
			RequestID: requestID,
			Offers:    []QuoteOffer{},
			Errors:    []QuoteError{{CarrierCode: pusulaCarrierCode, Message: message}},
		}
	}

	if !p.cfg.Enabled {
		return fail("Türkiye Sigorta Pusula integration is disabled. Set PUSULA_ENABLED=true to activate.")
	}
	if p.cfg.Endpoint == "" {
		return fail("Missing Pusula endpoint. Configure PUSULA_ENDPOINT to enable quote requests.")
	}

	payload := p.buildQuoteFragment(req.InsuredPerson, req.CustomFields)

	start := time.Now()
	result, err := p.soap.Call(ctx, soap.CallInput{Operation: "teklifOlustur", Body: payload})
	p.log.CarrierCall(pusulaCarrierCode, "teklifOlustur", err == nil && result.Success, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return fail(err.Error())
	}
	if !result.Success {
		message := result.Fault
		if message == "" {
			message = "Pusula teklifOlustur failed"
		}
		return fail(message)
	}

	gross, grossOK := extractGrossPremium(result.Raw)
	if !grossOK {
		if !p.cfg.FallbackPremium {
			return fail("Pusula response contained no recognizable premium field")
		}
		gross = p.randomPremium()
	}
	net, netOK := extractNetPremium(result.Raw)
	if !netOK {
		net = gross - 120
	}

	currency, ok := extractTagText(result.Raw, "dovizCinsi")
	if !ok {
		currency = "TRY"
	}
	coverageSummary, ok := extractTagText(result.Raw, "teminatAciklamasi")
	if !ok {
		coverageSummary = "Sağlık teminatları"
	}

	return QuoteResult{
		RequestID: requestID,
		Offers: []QuoteOffer{{
			CarrierCode:        pusulaCarrierCode,
			CarrierProductCode: p.productCode(),
			Product:            req.Product,
			GrossPremium:       gross,
			NetPremium:         net,
			Currency:           currency,
			CoverageSummary:    coverageSummary,
			CoverageDetails:    map[string]any{"raw": result.Raw},
			Warnings:           []string{},
			RawCarrierData:     map[string]any{"endpoint": p.cfg.Endpoint, "response": result.Raw},
		}},
		Errors: []QuoteError{},
	}
}

func (p *PusulaAdapter) BuyPolicy(ctx context.Context, req PolicyPurchaseRequest) (PolicyPurchaseResult, error) {
	if !p.cfg.Enabled {
		return PolicyPurchaseResult{}, NewError(ErrConfiguration, pusulaCarrierCode, "Türkiye Sigorta Pusula integration is disabled. Set PUSULA_ENABLED=true.")
	}
	if p.cfg.Endpoint == "" {
		return PolicyPurchaseResult{}, NewError(ErrConfiguration, pusulaCarrierCode, "Missing PUSULA_ENDPOINT for Pusula integration.")
	}

	payload := p.buildPurchaseFragment(req)

	start := time.Now()
	result, err := p.soap.Call(ctx, soap.CallInput{Operation: "policeTeklifOlustur", Body: payload})
	p.log.CarrierCall(pusulaCarrierCode, "policeTeklifOlustur", err == nil && result.Success, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return PolicyPurchaseResult{}, WrapError(ErrTransport, pusulaCarrierCode, err.Error(), err)
	}
	if !result.Success {
		message := result.Fault
		if message == "" {
			message = "Pusula policeTeklifOlustur failed; see raw response for details."
		}
		return PolicyPurchaseResult{}, NewError(ErrRemoteFault, pusulaCarrierCode, message)
	}

	now := time.Now().UTC()
	policyID, ok := extractTagText(result.Raw, "policeNo")
	if !ok {
		policyID = fmt.Sprintf("PUSULA-%d", now.UnixMilli())
	}
	carrierPolicyNumber, ok := extractTagText(result.Raw, "policeNumarasi")
	if !ok {
		carrierPolicyNumber = fmt.Sprintf("TS-%06d", rand.IntN(1_000_000))
	}
	effectiveFrom, ok := extractTagText(result.Raw, "baslangicTarihi")
	if !ok {
		effectiveFrom = now.Format(time.RFC3339)
	}
	effectiveTo, ok := extractTagText(result.Raw, "bitisTarihi")
	if !ok {
		from, err := time.Parse(time.RFC3339, effectiveFrom)
		if err != nil {
			from = now
		}
		effectiveTo = from.AddDate(1, 0, 0).Format(time.RFC3339)
	}

	documents := []PolicyDocument{}
	if p.cfg.DocBaseURL != "" {
		documents = append(documents, PolicyDocument{
			Type: "POLICY_PDF",
			URL:  fmt.Sprintf("%s/policy/%s.pdf", p.cfg.DocBaseURL, policyID),
		})
	}

	return PolicyPurchaseResult{
		PolicyID:            policyID,
		CarrierCode:         pusulaCarrierCode,
		CarrierPolicyNumber: carrierPolicyNumber,
		EffectiveFrom:       effectiveFrom,
		EffectiveTo:         effectiveTo,
		Documents:           documents,
		RawCarrierData:      map[string]any{"endpoint": p.cfg.Endpoint, "response": result.Raw},
	}, nil
}

// buildQuoteFragment maps the canonical request onto the teklifOlustur
// payload.
func (p *PusulaAdapter) buildQuoteFragment(insured InsuredPerson, customFields map[string]any) string {
	today := time.Now().UTC()
	start := today.Format("2006-01-02")
	end := today.AddDate(1, 0, 0).Format("2006-01-02")

	return fragmentString(func(doc *etree.Document) {
		general := doc.CreateElement("genelBilgi")
		general.CreateElement("urunKodu").SetText(p.productCode())
		general.CreateElement("baslangicTarihi").SetText(start)
		general.CreateElement("bitisTarihi").SetText(end)
		general.CreateElement("dovizCinsi").SetText("TL")
		general.CreateElement("fiyatAlternatifleri").SetText("true")

		insuredEl := doc.CreateElement("sigortaliBilgisi")
		insuredEl.CreateElement("Ad").SetText(insured.FullName)
		insuredEl.CreateElement("dogumTarihi").SetText(insured.BirthDate)
		insuredEl.CreateElement("kimlikNo").SetText(insured.NationalID)
		insuredEl.CreateElement("cepTel").SetText(phone.NormalizeE164(insured.PhoneNumber))
		insuredEl.CreateElement("email").SetText(insured.Email)

		risk := doc.CreateElement("riskBilgisi")
		risk.CreateElement("Kod").SetText("GRUP_TIPI")
		risk.CreateElement("deger").SetText(fieldString(customFields, "grupTipiKodu"))

		health := doc.CreateElement("saglikBilgisi")
		health.CreateElement("grupNo").SetText(fieldString(customFields, "grupNo"))
		health.CreateElement("grupYenilemeNo").SetText(fieldString(customFields, "grupYenilemeNo"))
	})
}

// buildPurchaseFragment extends the quote payload with the payment block.
func (p *PusulaAdapter) buildPurchaseFragment(req PolicyPurchaseRequest) string {
	quoteFragment := p.buildQuoteFragment(req.InsuredPerson, req.CustomFields)

	paymentMethod := ""
	if req.Payment.CardTokenID != "" {
		paymentMethod = "KREDI_KARTI"
	}
	installments := fieldInt(req.CustomFields, "taksitSayisi", 1)

	payment := fragmentString(func(doc *etree.Document) {
		paymentEl := doc.CreateElement("odemeBilgisi")
		paymentEl.CreateElement("odemeAraciKodu").SetText(paymentMethod)
		paymentEl.CreateElement("taksitSayisi").SetText(fmt.Sprintf("%d", installments))
	})

	return quoteFragment + payment
}

func (p *PusulaAdapter) randomPremium() float64 {
	return 1600 + float64(rand.IntN(201))
}

var _ Adapter = (*PusulaAdapter)(nil)
