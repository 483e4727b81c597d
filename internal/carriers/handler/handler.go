// Package handler exposes the carriers module's collaborator-facing HTTP
// boundary: the utility proxy that forwards whitelisted carrier URLs through
// an authenticated client.
package handler

import (
	"context"
	"net/http"
	"strings"

	"sigorta_portal_backend/platform/httpkit"
	"sigorta_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// UtilityCaller forwards a pre-validated URL through a carrier's
// authenticated client.
type UtilityCaller interface {
	CallUtilityURL(ctx context.Context, rawURL, method string, params map[string]any) (map[string]any, error)
}

// UtilityBases holds the configured carrier base URLs used for prefix
// matching. Empty bases never match.
type UtilityBases struct {
	Quick  string
	Orient string
	Pusula string
}

// UtilityHandler serves the utility proxy endpoint.
type UtilityHandler struct {
	quick UtilityCaller
	bases UtilityBases
	val   *validator.Validator
}

// NewUtilityHandler creates the utility proxy handler.
func NewUtilityHandler(quick UtilityCaller, bases UtilityBases, val *validator.Validator) *UtilityHandler {
	bases.Quick = strings.TrimRight(bases.Quick, "/")
	bases.Orient = strings.TrimRight(bases.Orient, "/")
	bases.Pusula = strings.TrimRight(bases.Pusula, "/")

	return &UtilityHandler{quick: quick, bases: bases, val: val}
}

// RegisterRoutes mounts the proxy route.
func (h *UtilityHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/proxy", h.Proxy)
}

type proxyBody struct {
	Method string         `json:"method" validate:"omitempty,oneof=GET POST"`
	Params map[string]any `json:"params" validate:"omitempty"`
}

// Proxy handles POST /utility/proxy?url=...
func (h *UtilityHandler) Proxy(c *gin.Context) {
	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		httpkit.Error(c, http.StatusBadRequest, "url query param is required", nil)
		return
	}

	var body proxyBody
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(body); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "method must be GET or POST", nil)
		return
	}

	method := body.Method
	if method == "" {
		method = http.MethodGet
	}

	provider := h.resolveProvider(rawURL)
	if provider == "" {
		httpkit.Error(c, http.StatusBadRequest, "URL not allowed for utility proxy", nil)
		return
	}

	if provider != "quick" {
		httpkit.Error(c, http.StatusBadRequest, "Utility proxy not yet implemented for provider: "+provider, nil)
		return
	}

	data, err := h.quick.CallUtilityURL(c.Request.Context(), rawURL, method, body.Params)
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	httpkit.OK(c, data)
}

// resolveProvider matches the URL against the configured carrier bases.
func (h *UtilityHandler) resolveProvider(rawURL string) string {
	switch {
	case h.bases.Quick != "" && strings.HasPrefix(rawURL, h.bases.Quick):
		return "quick"
	case h.bases.Orient != "" && strings.HasPrefix(rawURL, h.bases.Orient):
		return "orient"
	case h.bases.Pusula != "" && strings.HasPrefix(rawURL, h.bases.Pusula):
		return "pusula"
	default:
		return ""
	}
}
