package handler

import (
	"net/http"

	"sigorta_portal_backend/internal/quotes/service"
	"sigorta_portal_backend/internal/quotes/transport"
	"sigorta_portal_backend/platform/httpkit"
	"sigorta_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for quotes.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the quote routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Ping)
	rg.POST("", h.Create)
	rg.POST("/purchase", h.Purchase)
	rg.GET("/product/:product", h.CarriersForProduct)
}

// Ping reports readiness of the quote engine.
func (h *Handler) Ping(c *gin.Context) {
	httpkit.OK(c, gin.H{"status": "ok"})
}

// Create collects offers from all eligible carriers.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateQuote(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Purchase issues a policy for a previously returned offer.
func (h *Handler) Purchase(c *gin.Context) {
	var req transport.PurchasePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.PurchasePolicy(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// CarriersForProduct lists the carriers able to quote a product.
func (h *Handler) CarriersForProduct(c *gin.Context) {
	result, err := h.svc.CarriersForProduct(c.Param("product"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
