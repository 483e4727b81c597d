package transport

// InsuredPersonRequest is the identity block shared by quote and purchase
// requests.
type InsuredPersonRequest struct {
	FullName    string `json:"fullName" validate:"required,min=2,max=200"`
	BirthDate   string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	NationalID  string `json:"nationalId" validate:"omitempty,min=5,max=30"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,min=7,max=20"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// AdditionalInsuredRequest is a dependent covered alongside the main insured.
type AdditionalInsuredRequest struct {
	InsuredPersonRequest
	Role string `json:"role" validate:"omitempty,max=50"`
}

// VehicleRequest carries the motor-product sub-record.
type VehicleRequest struct {
	Plate     string `json:"plate" validate:"omitempty,max=20"`
	VIN       string `json:"vin" validate:"omitempty,max=30"`
	ModelYear int    `json:"modelYear" validate:"omitempty,min=1950,max=2100"`
	Brand     string `json:"brand" validate:"omitempty,max=100"`
	Model     string `json:"model" validate:"omitempty,max=100"`
}

// CreateQuoteRequest is the request body for collecting carrier quotes.
// CarrierCodes, when set, restricts the fan-out to the listed carriers.
type CreateQuoteRequest struct {
	Product       string                     `json:"product" validate:"required,oneof=TRAFFIC HEALTH CASCO HOME LIFE PET"`
	CarrierCodes  []string                   `json:"carrierCodes" validate:"omitempty,dive,min=1"`
	InsuredPerson InsuredPersonRequest       `json:"insuredPerson" validate:"required"`
	Insurer       *InsuredPersonRequest      `json:"insurer" validate:"omitempty"`
	Insureds      []AdditionalInsuredRequest `json:"insureds" validate:"omitempty,dive"`
	Vehicle       *VehicleRequest            `json:"vehicle" validate:"omitempty"`
	CustomFields  map[string]any             `json:"customFields"`
}

// SelectedOfferRequest is the offer, as previously returned by a quote call,
// that the caller wants turned into a policy.
type SelectedOfferRequest struct {
	CarrierCode        string         `json:"carrierCode" validate:"required"`
	CarrierProductCode string         `json:"carrierProductCode"`
	Product            string         `json:"product" validate:"required,oneof=TRAFFIC HEALTH CASCO HOME LIFE PET"`
	GrossPremium       float64        `json:"grossPremium" validate:"min=0"`
	NetPremium         float64        `json:"netPremium" validate:"min=0"`
	Currency           string         `json:"currency"`
	CoverageSummary    string         `json:"coverageSummary"`
	CoverageDetails    map[string]any `json:"coverageDetails"`
	RawCarrierData     any            `json:"rawCarrierData"`
}

// PaymentRequest references a tokenized card. An empty token means cash.
type PaymentRequest struct {
	CardTokenID string `json:"cardTokenId" validate:"omitempty,max=100"`
}

// PurchasePolicyRequest is the request body for issuing a policy from a
// selected offer.
type PurchasePolicyRequest struct {
	QuoteRequestID string               `json:"quoteRequestId" validate:"omitempty,max=100"`
	SelectedOffer  SelectedOfferRequest `json:"selectedOffer" validate:"required"`
	InsuredPerson  InsuredPersonRequest `json:"insuredPerson" validate:"required"`
	Payment        PaymentRequest       `json:"payment"`
	CustomFields   map[string]any       `json:"customFields"`
}

// CarriersForProductResponse lists which carriers can quote a product.
type CarriersForProductResponse struct {
	Product  string   `json:"product"`
	Carriers []string `json:"carriers"`
}
