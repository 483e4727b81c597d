package carriers

import (
	"sigorta_portal_backend/internal/carriers/handler"
	"sigorta_portal_backend/internal/config"
	apphttp "sigorta_portal_backend/internal/http"
	"sigorta_portal_backend/platform/logger"
	"sigorta_portal_backend/platform/validator"
)

// Module owns the adapter registry and the aggregation engine, and exposes
// the utility proxy boundary over HTTP.
type Module struct {
	aggregator *Aggregator
	handler    *handler.UtilityHandler
}

// NewModule builds every carrier adapter from resolved configuration and
// registers them in a fixed order. Registration order decides purchase
// routing when carrier codes ever collide.
func NewModule(cfg config.CarriersConfig, log *logger.Logger, val *validator.Validator) *Module {
	quick := NewQuickAdapter(cfg.Quick, cfg.OutboundTimeout, log)

	adapters := []Adapter{
		NewMockAdapter(),
		NewAllianzAdapter(),
		NewAxaAdapter(),
		NewPusulaAdapter(cfg.Pusula, cfg.OutboundTimeout, log),
		NewOrientAdapter(cfg.Orient, cfg.OutboundTimeout, log),
		quick,
	}

	aggregator := NewAggregator(adapters, log)
	utilityHandler := handler.NewUtilityHandler(quick, handler.UtilityBases{
		Quick:  cfg.Quick.BaseURL,
		Orient: cfg.Orient.UtilityEndpoint,
		Pusula: cfg.Pusula.Endpoint,
	}, val)

	return &Module{
		aggregator: aggregator,
		handler:    utilityHandler,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "carriers"
}

// Aggregator returns the aggregation engine for in-process callers.
func (m *Module) Aggregator() *Aggregator {
	return m.aggregator
}

// RegisterRoutes registers the utility proxy boundary.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	utility := ctx.V1.Group("/utility")
	m.handler.RegisterRoutes(utility)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
