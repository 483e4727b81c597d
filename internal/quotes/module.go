// Package quotes provides the quote collection and policy purchase module.
package quotes

import (
	"sigorta_portal_backend/internal/carriers"
	apphttp "sigorta_portal_backend/internal/http"
	"sigorta_portal_backend/internal/quotes/handler"
	"sigorta_portal_backend/internal/quotes/service"
	"sigorta_portal_backend/platform/logger"
	"sigorta_portal_backend/platform/validator"
)

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(agg *carriers.Aggregator, log *logger.Logger, val *validator.Validator) *Module {
	svc := service.New(agg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	quotes := ctx.V1.Group("/quotes")
	quotes.Use(ctx.QuoteRateLimiter.RateLimit())
	m.handler.RegisterRoutes(quotes)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
