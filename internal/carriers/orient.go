package carriers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"sigorta_portal_backend/internal/carriers/soap"
	"sigorta_portal_backend/internal/config"
	"sigorta_portal_backend/platform/logger"

	"github.com/beevik/etree"
)

const (
	orientCarrierCode = "ORIENT_SIGORTA"

	orientPolicyNS      = "http://schemas.datacontract.org/2004/07/EntitySpaces.NonLife.Policy"
	orientTypeMappingNS = "http://schemas.datacontract.org/2004/07/EntitySpaces.NonLife.TypeMapping"
	orientXSINS         = "http://www.w3.org/2001/XMLSchema-instance"
)

// K10 tariff statistic defaults (from the carrier's tariff sheet).
var orientStatDefaults = [][2]string{
	{"AKL", "001"}, // usage type
	{"RNT", "000"}, // usage purpose
}

// OrientAdapter integrates Orient Sigorta over its Security/Policy/Utility
// SOAP services. Every business call first obtains a short-lived
// authentication key from the Security service; the key lives only for the
// duration of one outer call and is never cached across requests.
type OrientAdapter struct {
	cfg            config.OrientConfig
	policyClient   *soap.Client
	utilityClient  *soap.Client
	securityClient *soap.Client
	log            *logger.Logger
}

// NewOrientAdapter creates the Orient Sigorta adapter from resolved config.
func NewOrientAdapter(cfg config.OrientConfig, timeout time.Duration, log *logger.Logger) *OrientAdapter {
	creds := soap.Credentials{Username: cfg.Username, Password: cfg.Password}
	opts := soap.Options{MockMode: cfg.MockMode, Timeout: timeout}

	return &OrientAdapter{
		cfg:            cfg,
		policyClient:   soap.NewClient(cfg.PolicyEndpoint, creds, opts),
		utilityClient:  soap.NewClient(cfg.UtilityEndpoint, creds, opts),
		securityClient: soap.NewClient(cfg.SecurityEndpoint, creds, opts),
		log:            log.WithCarrier(orientCarrierCode),
	}
}

func (o *OrientAdapter) CarrierCode() string {
	return orientCarrierCode
}

// SupportsProduct reports CASCO only; that is the sole product Orient is
// integrated for per its service docs. A disabled integration still claims
// the product so that callers get an explicit disablement error instead of
// the carrier silently vanishing.
func (o *OrientAdapter) SupportsProduct(product ProductCode) bool {
	return product == ProductCasco
}

func (o *OrientAdapter) GetQuote(ctx context.Context, req QuoteRequest) QuoteResult {
	requestID := fmt.Sprintf("orient-%d", time.Now().UnixMilli())

	fail := func(message string) QuoteResult {
		return QuoteResult{
			RequestID: requestID,
			Offers:    []QuoteOffer{},
			Errors:    []QuoteError{{CarrierCode: orientCarrierCode, Message: message}},
		}
	}

	if !o.cfg.Enabled {
		return fail("Orient integration disabled; set ORIENT_ENABLED=true")
	}
	if o.cfg.PolicyEndpoint == "" {
		return fail("Missing ORIENT_POLICY_ENDPOINT. Configure endpoints to enable quotes.")
	}

	if o.cfg.MockMode {
		grossPremium := o.randomPremium(req.Product)
		return QuoteResult{
			RequestID: requestID,
			Offers: []QuoteOffer{{
				CarrierCode:        orientCarrierCode,
				CarrierProductCode: fmt.Sprintf("%s_%s", orientCarrierCode, req.Product),
				Product:            req.Product,
				GrossPremium:       grossPremium,
				NetPremium:         grossPremium - 100,
				Currency:           "TRY",
				CoverageSummary:    fmt.Sprintf("Orient %s coverage (mocked)", req.Product),
				CoverageDetails:    map[string]any{},
				Warnings:           []string{},
				RawCarrierData:     map[string]any{"mode": "mock"},
			}},
			Errors: []QuoteError{},
		}
	}

	authKey, err := o.authenticationKey(ctx)
	if err != nil {
		return fail(err.Error())
	}

	orientCfg := fieldMap(req.CustomFields, "orient")
	operation := fieldString(orientCfg, "quoteOperation")
	if operation == "" {
		operation = "CreatePolicy"
	}

	targetService := "policy"
	client := o.policyClient
	if fieldString(orientCfg, "service") == "utility" {
		targetService = "utility"
		client = o.utilityClient
	}

	payload := fieldString(orientCfg, "quotePayload")
	if payload != "" {
		payload = injectAuthKey(payload, authKey)
	} else {
		payload = o.buildPolicyFragment(req.InsuredPerson, req.Vehicle, nil, orientCfg, authKey)
	}

	soapAction := fieldString(orientCfg, "quoteSoapAction")
	if soapAction == "" {
		soapAction = o.soapAction(targetService, operation)
	}

	start := time.Now()
	result, err := client.Call(ctx, soap.CallInput{Operation: operation, Body: payload, SOAPAction: soapAction})
	o.log.CarrierCall(orientCarrierCode, operation, err == nil && result.Success, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return fail(err.Error())
	}
	if !result.Success {
		message := result.Fault
		if message == "" {
			message = "Orient quote call failed"
		}
		return fail(message)
	}

	gross, grossOK := extractGrossPremium(result.Raw)
	if !grossOK {
		if !o.cfg.FallbackPremium {
			return fail("Orient response contained no recognizable premium field")
		}
		gross = o.randomPremium(req.Product)
	}
	net, netOK := extractNetPremium(result.Raw)
	if !netOK {
		net = gross - 100
	}

	return QuoteResult{
		RequestID: requestID,
		Offers: []QuoteOffer{{
			CarrierCode:        orientCarrierCode,
			CarrierProductCode: fmt.Sprintf("%s_%s", orientCarrierCode, req.Product),
			Product:            req.Product,
			GrossPremium:       gross,
			NetPremium:         net,
			Currency:           "TRY",
			CoverageSummary:    fmt.Sprintf("Orient %s coverage", req.Product),
			CoverageDetails:    map[string]any{"raw": result.Raw},
			Warnings:           []string{},
			RawCarrierData:     map[string]any{"response": result.Raw},
		}},
		Errors: []QuoteError{},
	}
}

func (o *OrientAdapter) BuyPolicy(ctx context.Context, req PolicyPurchaseRequest) (PolicyPurchaseResult, error) {
	if !o.cfg.Enabled {
		return PolicyPurchaseResult{}, NewError(ErrConfiguration, orientCarrierCode, "Orient integration disabled; set ORIENT_ENABLED=true")
	}
	if o.cfg.PolicyEndpoint == "" {
		return PolicyPurchaseResult{}, NewError(ErrConfiguration, orientCarrierCode, "Missing ORIENT_POLICY_ENDPOINT for policy creation.")
	}

	now := time.Now().UTC()

	if o.cfg.MockMode {
		return PolicyPurchaseResult{
			PolicyID:            fmt.Sprintf("ORIENT-%d", now.UnixMilli()),
			CarrierCode:         orientCarrierCode,
			CarrierPolicyNumber: fmt.Sprintf("OR-%06d", rand.IntN(1_000_000)),
			EffectiveFrom:       now.Format(time.RFC3339),
			EffectiveTo:         now.AddDate(1, 0, 0).Format(time.RFC3339),
			Documents:           []PolicyDocument{},
			RawCarrierData:      map[string]any{"mode": "mock"},
		}, nil
	}

	authKey, err := o.authenticationKey(ctx)
	if err != nil {
		return PolicyPurchaseResult{}, err
	}

	orientCfg := fieldMap(req.CustomFields, "orient")
	operation := fieldString(orientCfg, "policyOperation")
	if operation == "" {
		operation = "CreatePolicy"
	}
	soapAction := fieldString(orientCfg, "policySoapAction")
	if soapAction == "" {
		soapAction = o.soapAction("policy", operation)
	}

	payload := o.buildPolicyFragment(req.InsuredPerson, nil, &req, orientCfg, authKey)

	start := time.Now()
	result, err := o.policyClient.Call(ctx, soap.CallInput{Operation: operation, Body: payload, SOAPAction: soapAction})
	o.log.CarrierCall(orientCarrierCode, operation, err == nil && result.Success, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return PolicyPurchaseResult{}, WrapError(ErrTransport, orientCarrierCode, err.Error(), err)
	}
	if !result.Success {
		message := result.Fault
		if message == "" {
			message = "Orient CreatePolicy failed"
		}
		return PolicyPurchaseResult{}, NewError(ErrRemoteFault, orientCarrierCode, message)
	}

	policyID, ok := extractTagText(result.Raw, "PolicyNo")
	if !ok {
		policyID = fmt.Sprintf("ORIENT-%d", now.UnixMilli())
	}
	carrierPolicyNumber, ok := extractTagText(result.Raw, "PolicyNumber")
	if !ok {
		carrierPolicyNumber = fmt.Sprintf("OR-%06d", rand.IntN(1_000_000))
	}

	return PolicyPurchaseResult{
		PolicyID:            policyID,
		CarrierCode:         orientCarrierCode,
		CarrierPolicyNumber: carrierPolicyNumber,
		EffectiveFrom:       now.Format(time.RFC3339),
		EffectiveTo:         now.AddDate(1, 0, 0).Format(time.RFC3339),
		Documents:           []PolicyDocument{},
		RawCarrierData:      map[string]any{"response": result.Raw},
	}, nil
}

// authenticationKey obtains the short-lived key from the Security service.
// The returned errors are typed so BuyPolicy can propagate them directly;
// GetQuote folds them into the result instead.
func (o *OrientAdapter) authenticationKey(ctx context.Context) (string, error) {
	if o.cfg.SecurityEndpoint == "" {
		return "", NewError(ErrConfiguration, orientCarrierCode, "Missing ORIENT_SECURITY_ENDPOINT for Orient security service.")
	}
	if o.cfg.AppSecurityKey == "" {
		return "", NewError(ErrConfiguration, orientCarrierCode, "Missing ORIENT_APP_SECURITY_KEY for Orient security service.")
	}
	if o.cfg.Username == "" || o.cfg.Password == "" {
		return "", NewError(ErrConfiguration, orientCarrierCode, "Missing ORIENT_USERNAME/ORIENT_PASSWORD for Orient security service.")
	}

	body := fragmentString(func(doc *etree.Document) {
		doc.CreateElement("appSecurityKey").SetText(o.cfg.AppSecurityKey)
		doc.CreateElement("userName").SetText(o.cfg.Username)
		doc.CreateElement("password").SetText(o.cfg.Password)
	})

	result, err := o.securityClient.Call(ctx, soap.CallInput{
		Operation:  "GetAuthenticationKey",
		Body:       body,
		SOAPAction: "http://tempuri.org/ISecurityService/GetAuthenticationKey",
	})
	if err != nil {
		return "", WrapError(ErrTransport, orientCarrierCode, "Could not retrieve Orient authentication key.", err)
	}
	if !result.Success {
		return "", NewError(ErrRemoteFault, orientCarrierCode, "Could not retrieve Orient authentication key.")
	}

	// The Security service answers with either element name depending on
	// the deployed contract version.
	if key, ok := extractTagText(result.Raw, "AuthenticationKey"); ok {
		return key, nil
	}
	if key, ok := extractTagText(result.Raw, "GetAuthenticationKeyResult"); ok {
		return key, nil
	}
	return "", NewError(ErrRemoteFault, orientCarrierCode, "Could not retrieve Orient authentication key.")
}

// buildPolicyFragment builds the CreatePolicy operation body. The same entity
// shape serves quoting and purchasing; purchase adds serial and region
// fields when supplied.
func (o *OrientAdapter) buildPolicyFragment(
	insured InsuredPerson,
	vehicle *Vehicle,
	purchase *PolicyPurchaseRequest,
	orientCfg map[string]any,
	authKey string,
) string {
	productCode := fieldString(orientCfg, "productCode")
	if productCode == "" {
		productCode = o.cfg.ProductCode
	}
	if productCode == "" && purchase != nil && purchase.SelectedOffer.CarrierProductCode != "" {
		productCode = purchase.SelectedOffer.CarrierProductCode
	}
	if productCode == "" {
		productCode = "CASCO"
	}
	tariffCode := fieldString(orientCfg, "tariffCode")
	if tariffCode == "" {
		tariffCode = o.cfg.TariffCode
	}
	agencyNo := fieldString(orientCfg, "agencyNo")
	if agencyNo == "" {
		agencyNo = o.cfg.AgencyNo
	}
	riskAddress := fieldMap(orientCfg, "riskAddress")

	startDate := fieldString(orientCfg, "startDate")
	if startDate == "" {
		startDate = time.Now().UTC().Format(time.RFC3339)
	}
	endDate := fieldString(orientCfg, "endDate")
	if endDate == "" {
		endDate = time.Now().UTC().AddDate(1, 0, 0).Format(time.RFC3339)
	}
	// Orient expects yyyy-MM-ddTHH:mm:ss.
	startDate = truncateDate(startDate)
	endDate = truncateDate(endDate)

	plate := fieldString(orientCfg, "plate")
	if plate == "" && vehicle != nil {
		plate = vehicle.Plate
	}
	plateProvince := fieldString(orientCfg, "plateProvince")
	if plateProvince == "" && len(plate) >= 2 {
		plateProvince = plate[:2]
	}

	return fragmentString(func(doc *etree.Document) {
		doc.CreateElement("authenticationKey").SetText(authKey)

		entity := doc.CreateElement("entity")
		entity.CreateAttr("xmlns:a", orientPolicyNS)
		entity.CreateAttr("xmlns:i", orientXSINS)

		insuredEl := entity.CreateElement("a:Insured")
		insuredEl.CreateAttr("xmlns:b", orientTypeMappingNS)
		insuredEl.CreateElement("b:ACENTA_NO").SetText(agencyNo)
		insuredEl.CreateElement("b:AD1").SetText(insured.FullName)
		insuredEl.CreateElement("b:TC_KIMLIK_NO").SetText(insured.NationalID)

		item := entity.CreateElement("a:Item")
		item.CreateAttr("xmlns:b", orientTypeMappingNS)
		item.CreateElement("b:PLAKA_CINS").SetText(fieldString(orientCfg, "plateType"))
		item.CreateElement("b:PLAKA_IL_KOD").SetText(plateProvince)
		if purchase != nil {
			item.CreateElement("b:POL_TANZIM_BOLGE_KOD").SetText(fieldString(orientCfg, "issueRegionCode"))
		}
		item.CreateElement("b:TARIFE_KOD").SetText(tariffCode)
		item.CreateElement("b:TEM_KOD").SetText(productCode)
		if purchase != nil {
			item.CreateElement("b:POLICE_SERINO").SetText(fieldString(orientCfg, "policySerie"))
		}
		item.CreateElement("b:BASLAMA_TARIH").SetText(startDate)
		item.CreateElement("b:BITIS_TARIH").SetText(endDate)

		address := entity.CreateElement("a:RiskAddress")
		address.CreateAttr("xmlns:b", orientTypeMappingNS)
		address.CreateElement("b:IL").SetText(fieldString(riskAddress, "city"))
		address.CreateElement("b:ILCE").SetText(fieldString(riskAddress, "county"))
		address.CreateElement("b:SEMT").SetText(fieldString(riskAddress, "district"))
		address.CreateElement("b:SOKAK").SetText(fieldString(riskAddress, "street"))
		address.CreateElement("b:NO").SetText(fieldString(riskAddress, "no"))
		address.CreateElement("b:POSTA_KODU").SetText(fieldString(riskAddress, "postalCode"))

		o.appendStatistics(entity, orientCfg, vehicle, plateProvince)

		doc.CreateElement("startDate").SetText(startDate)
		doc.CreateElement("endDate").SetText(endDate)
		doc.CreateElement("addNewAddress").SetText("1")
	})
}

// appendStatistics builds the tariff-parameter block of code/value pairs.
func (o *OrientAdapter) appendStatistics(entity *etree.Element, orientCfg map[string]any, vehicle *Vehicle, plateProvince string) {
	vehicleCfg := fieldMap(orientCfg, "vehicle")
	brand := fieldString(vehicleCfg, "brand")
	model := fieldString(vehicleCfg, "model")
	modelYear := fieldString(vehicleCfg, "modelYear")
	if vehicle != nil {
		if brand == "" {
			brand = vehicle.Brand
		}
		if model == "" {
			model = vehicle.Model
		}
		if modelYear == "" && vehicle.ModelYear > 0 {
			modelYear = fmt.Sprintf("%d", vehicle.ModelYear)
		}
	}

	ilKod := fieldString(orientCfg, "ilKod")
	if ilKod == "" {
		ilKod = plateProvince
	}
	plakaKod := fieldString(orientCfg, "plakaKod")
	if plakaKod == "" {
		plakaKod = plateProvince
	}

	entries := make([][2]string, 0, 10)
	push := func(code, value string) {
		if value != "" {
			entries = append(entries, [2]string{code, value})
		}
	}
	for _, entry := range orientStatDefaults {
		push(entry[0], entry[1])
	}
	push("MRG", brand)
	push("MAR", model)
	push("YIL", modelYear)
	push("ILK", ilKod)
	push("PIK", plakaKod)
	push("MIL", fieldString(orientCfg, "mernisIl"))
	push("MIC", fieldString(orientCfg, "mernisIlce"))
	push("AKL", fieldString(orientCfg, "kullanimSekli"))
	push("RNT", fieldString(orientCfg, "kullanimAmaci"))

	if len(entries) == 0 {
		return
	}

	statistics := entity.CreateElement("a:Statistics")
	statistics.CreateAttr("xmlns:b", orientTypeMappingNS)
	value := statistics.CreateElement("b:Value")
	for _, entry := range entries {
		record := value.CreateElement("b:EXT_WS_ISTDEG_REC")
		record.CreateElement("b:IST_KOD").SetText(entry[0])
		record.CreateElement("b:DEG_KOD").SetText(entry[1])
	}
}

func (o *OrientAdapter) soapAction(targetService, operation string) string {
	service := "Policy"
	if targetService == "utility" {
		service = "Utility"
	}
	return fmt.Sprintf("http://tempuri.org/I%sService/%s", service, operation)
}

func (o *OrientAdapter) randomPremium(product ProductCode) float64 {
	base := 1800.0
	if product == ProductTraffic {
		base = 1200.0
	}
	return base + float64(rand.IntN(251))
}

// injectAuthKey substitutes the {{AUTH_KEY}} placeholder in caller-supplied
// payload overrides.
func injectAuthKey(payload, authKey string) string {
	return strings.ReplaceAll(payload, "{{AUTH_KEY}}", authKey)
}

// truncateDate trims an ISO timestamp to yyyy-MM-ddTHH:mm:ss.
func truncateDate(value string) string {
	if len(value) > 19 {
		return value[:19]
	}
	return value
}

// fragmentString serializes sibling top-level elements built by fn into an
// XML fragment string.
func fragmentString(fn func(doc *etree.Document)) string {
	doc := etree.NewDocument()
	fn(doc)
	raw, _ := doc.WriteToString()
	return raw
}

var _ Adapter = (*OrientAdapter)(nil)
