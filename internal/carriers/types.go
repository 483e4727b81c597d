package carriers

// ProductCode identifies what is being quoted and drives adapter capability
// filtering.
type ProductCode string

const (
	ProductTraffic ProductCode = "TRAFFIC"
	ProductHealth  ProductCode = "HEALTH"
	ProductCasco   ProductCode = "CASCO"
	ProductHome    ProductCode = "HOME"
	ProductLife    ProductCode = "LIFE"
	ProductPet     ProductCode = "PET"
)

// ParseProductCode validates a raw string against the closed enumeration.
func ParseProductCode(raw string) (ProductCode, bool) {
	switch ProductCode(raw) {
	case ProductTraffic, ProductHealth, ProductCasco, ProductHome, ProductLife, ProductPet:
		return ProductCode(raw), true
	}
	return "", false
}

// InsuredPerson is the normalized identity of the person being insured.
type InsuredPerson struct {
	FullName    string `json:"fullName"`
	BirthDate   string `json:"birthDate,omitempty"`
	NationalID  string `json:"nationalId,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
}

// AdditionalInsured is a dependent covered alongside the main insured person.
type AdditionalInsured struct {
	InsuredPerson
	Role string `json:"role,omitempty"`
}

// Vehicle is the motor-product sub-record of a quote request.
type Vehicle struct {
	Plate     string `json:"plate,omitempty"`
	VIN       string `json:"vin,omitempty"`
	ModelYear int    `json:"modelYear,omitempty"`
	Brand     string `json:"brand,omitempty"`
	Model     string `json:"model,omitempty"`
}

// QuoteRequest is the canonical quote request handed to every adapter.
// CustomFields carries per-carrier configuration (payload overrides, tariff
// parameters) without polluting the canonical shape.
type QuoteRequest struct {
	Product       ProductCode         `json:"product"`
	CarrierCode   string              `json:"carrierCode,omitempty"` // set when a single carrier is targeted
	InsuredPerson InsuredPerson       `json:"insuredPerson"`
	Insurer       *InsuredPerson      `json:"insurer,omitempty"` // payer, may differ from insured
	Insureds      []AdditionalInsured `json:"insureds,omitempty"`
	Vehicle       *Vehicle            `json:"vehicle,omitempty"`
	CustomFields  map[string]any      `json:"customFields,omitempty"`
}

// QuoteOffer is one priced proposal returned by one carrier.
type QuoteOffer struct {
	CarrierCode        string         `json:"carrierCode"`
	CarrierProductCode string         `json:"carrierProductCode"`
	Product            ProductCode    `json:"product"`
	GrossPremium       float64        `json:"grossPremium"`
	NetPremium         float64        `json:"netPremium"`
	Currency           string         `json:"currency"`
	CoverageSummary    string         `json:"coverageSummary"`
	CoverageDetails    map[string]any `json:"coverageDetails,omitempty"`
	Warnings           []string       `json:"warnings,omitempty"`
	// RawCarrierData is the opaque carrier response kept for audit and
	// debugging. It is never parsed downstream.
	RawCarrierData any `json:"rawCarrierData,omitempty"`
}

// QuoteError is a per-carrier failure folded into an otherwise successful
// quote result.
type QuoteError struct {
	CarrierCode string `json:"carrierCode"`
	Message     string `json:"message"`
}

// QuoteResult is the aggregate outcome of one quote call. Offers appear in
// adapter completion order; the order is not significant.
type QuoteResult struct {
	RequestID string       `json:"requestId"`
	Offers    []QuoteOffer `json:"offers"`
	Errors    []QuoteError `json:"errors,omitempty"`
}

// Payment references how the policy is paid for.
type Payment struct {
	CardTokenID string `json:"cardTokenId,omitempty"`
}

// PolicyPurchaseRequest asks exactly one carrier to issue a policy for a
// previously returned offer. SelectedOffer must match an offer from a prior
// quote result; it is never re-derived.
type PolicyPurchaseRequest struct {
	QuoteRequestID string         `json:"quoteRequestId"`
	SelectedOffer  QuoteOffer     `json:"selectedOffer"`
	InsuredPerson  InsuredPerson  `json:"insuredPerson"`
	Payment        Payment        `json:"payment"`
	CustomFields   map[string]any `json:"customFields,omitempty"`
}

// PolicyDocument describes a downloadable policy document.
type PolicyDocument struct {
	Type string `json:"type"` // POLICY_PDF or SUMMARY_PDF
	URL  string `json:"url"`
}

// PolicyPurchaseResult is the outcome of a successful policy purchase.
// Effective timestamps are ISO 8601 in UTC.
type PolicyPurchaseResult struct {
	PolicyID            string           `json:"policyId"`
	CarrierCode         string           `json:"carrierCode"`
	CarrierPolicyNumber string           `json:"carrierPolicyNumber"`
	EffectiveFrom       string           `json:"effectiveFrom"`
	EffectiveTo         string           `json:"effectiveTo"`
	Documents           []PolicyDocument `json:"documents,omitempty"`
	RawCarrierData      any              `json:"rawCarrierData,omitempty"`
}
