// Package service maps the transport DTOs onto the carrier aggregation
// engine and applies the request-shaping defaults the carriers expect.
package service

import (
	"context"

	"sigorta_portal_backend/internal/carriers"
	"sigorta_portal_backend/internal/quotes/transport"
	"sigorta_portal_backend/platform/apperr"
	"sigorta_portal_backend/platform/logger"
)

// Service orchestrates quote collection and policy purchase.
type Service struct {
	agg *carriers.Aggregator
	log *logger.Logger
}

// New creates a new quotes service.
func New(agg *carriers.Aggregator, log *logger.Logger) *Service {
	return &Service{agg: agg, log: log}
}

// CreateQuote fans the request out to the eligible carriers. It always
// returns a result; per-carrier failures are folded into the result's
// errors list.
func (s *Service) CreateQuote(ctx context.Context, dto transport.CreateQuoteRequest) (carriers.QuoteResult, error) {
	product, ok := carriers.ParseProductCode(dto.Product)
	if !ok {
		return carriers.QuoteResult{}, apperr.BadRequest("unknown product code: " + dto.Product)
	}

	req := carriers.QuoteRequest{
		Product:       product,
		InsuredPerson: toInsuredPerson(dto.InsuredPerson),
		CustomFields:  dto.CustomFields,
	}

	// The payer defaults to the insured person when not given separately.
	if dto.Insurer != nil {
		insurer := toInsuredPerson(*dto.Insurer)
		req.Insurer = &insurer
	} else {
		insurer := req.InsuredPerson
		req.Insurer = &insurer
	}

	for _, extra := range dto.Insureds {
		req.Insureds = append(req.Insureds, carriers.AdditionalInsured{
			InsuredPerson: toInsuredPerson(extra.InsuredPersonRequest),
			Role:          extra.Role,
		})
	}
	if len(req.Insureds) == 0 {
		req.Insureds = insuredsFromCustomFields(dto.CustomFields)
	}

	if dto.Vehicle != nil {
		req.Vehicle = &carriers.Vehicle{
			Plate:     dto.Vehicle.Plate,
			VIN:       dto.Vehicle.VIN,
			ModelYear: dto.Vehicle.ModelYear,
			Brand:     dto.Vehicle.Brand,
			Model:     dto.Vehicle.Model,
		}
	}

	return s.agg.GetQuotes(ctx, req, dto.CarrierCodes), nil
}

// PurchasePolicy routes the purchase to the carrier that produced the
// selected offer.
func (s *Service) PurchasePolicy(ctx context.Context, dto transport.PurchasePolicyRequest) (carriers.PolicyPurchaseResult, error) {
	product, ok := carriers.ParseProductCode(dto.SelectedOffer.Product)
	if !ok {
		return carriers.PolicyPurchaseResult{}, apperr.BadRequest("unknown product code: " + dto.SelectedOffer.Product)
	}

	req := carriers.PolicyPurchaseRequest{
		QuoteRequestID: dto.QuoteRequestID,
		SelectedOffer: carriers.QuoteOffer{
			CarrierCode:        dto.SelectedOffer.CarrierCode,
			CarrierProductCode: dto.SelectedOffer.CarrierProductCode,
			Product:            product,
			GrossPremium:       dto.SelectedOffer.GrossPremium,
			NetPremium:         dto.SelectedOffer.NetPremium,
			Currency:           dto.SelectedOffer.Currency,
			CoverageSummary:    dto.SelectedOffer.CoverageSummary,
			CoverageDetails:    dto.SelectedOffer.CoverageDetails,
			RawCarrierData:     dto.SelectedOffer.RawCarrierData,
		},
		InsuredPerson: toInsuredPerson(dto.InsuredPerson),
		Payment:       carriers.Payment{CardTokenID: dto.Payment.CardTokenID},
		CustomFields:  dto.CustomFields,
	}

	result, err := s.agg.BuyPolicy(ctx, req)
	if err != nil {
		return carriers.PolicyPurchaseResult{}, carriers.ToAppError(err)
	}
	return result, nil
}

// CarriersForProduct returns the carrier codes able to quote the product.
func (s *Service) CarriersForProduct(raw string) (transport.CarriersForProductResponse, error) {
	product, ok := carriers.ParseProductCode(raw)
	if !ok {
		return transport.CarriersForProductResponse{}, apperr.BadRequest("unknown product code: " + raw)
	}

	codes := s.agg.CarriersForProduct(product)
	if codes == nil {
		codes = []string{}
	}
	return transport.CarriersForProductResponse{Product: raw, Carriers: codes}, nil
}

func toInsuredPerson(dto transport.InsuredPersonRequest) carriers.InsuredPerson {
	return carriers.InsuredPerson{
		FullName:    dto.FullName,
		BirthDate:   dto.BirthDate,
		NationalID:  dto.NationalID,
		PhoneNumber: dto.PhoneNumber,
		Email:       dto.Email,
	}
}

// insuredsFromCustomFields lifts a dependents list supplied inside
// customFields, the shape some frontends still send.
func insuredsFromCustomFields(fields map[string]any) []carriers.AdditionalInsured {
	raw, ok := fields["insureds"].([]any)
	if !ok {
		return nil
	}

	var insureds []carriers.AdditionalInsured
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		person := carriers.AdditionalInsured{
			InsuredPerson: carriers.InsuredPerson{
				FullName:    stringField(entry, "fullName"),
				BirthDate:   stringField(entry, "birthDate"),
				NationalID:  stringField(entry, "nationalId"),
				PhoneNumber: stringField(entry, "phoneNumber"),
				Email:       stringField(entry, "email"),
			},
			Role: stringField(entry, "role"),
		}
		if person.FullName == "" {
			continue
		}
		insureds = append(insureds, person)
	}
	return insureds
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
