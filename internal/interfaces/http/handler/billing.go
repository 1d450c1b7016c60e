package handler

import (
	"net/http"

	billingapp "github.com/bizdesk/backend/internal/application/billing"
	"github.com/bizdesk/backend/internal/infrastructure/logger"
	"github.com/bizdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StripeSignatureHeader carries the webhook signature
const StripeSignatureHeader = "Stripe-Signature"

// BillingHandler handles subscription billing endpoints
type BillingHandler struct {
	BaseHandler
	billingService *billingapp.BillingService
	webhookService *billingapp.StripeWebhookService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService *billingapp.BillingService, webhookService *billingapp.StripeWebhookService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		webhookService: webhookService,
	}
}

// CreateCheckout godoc
// @Summary      Start a subscription checkout
// @Description  Creates the Stripe customer on first use and returns the hosted checkout URL
// @Tags         billing
// @Produce      json
// @Success      200 {object} dto.Response{data=billingapp.SessionResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo} "Billing disabled"
// @Security     BearerAuth
// @Router       /billing/checkout [post]
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	session, err := h.billingService.CreateCheckoutSession(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// CreatePortal godoc
// @Summary      Open the billing portal
// @Tags         billing
// @Produce      json
// @Success      200 {object} dto.Response{data=billingapp.SessionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "No billing account"
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo} "Billing disabled"
// @Security     BearerAuth
// @Router       /billing/portal [post]
func (h *BillingHandler) CreatePortal(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	session, err := h.billingService.CreatePortalSession(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// GetSubscription godoc
// @Summary      Get subscription status
// @Tags         billing
// @Produce      json
// @Success      200 {object} dto.Response{data=billingapp.SubscriptionResponse}
// @Security     BearerAuth
// @Router       /billing/subscription [get]
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	sub, err := h.billingService.GetSubscription(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sub)
}

// ListTransactions godoc
// @Summary      List billing transactions
// @Tags         billing
// @Produce      json
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]billingapp.TransactionResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /billing/transactions [get]
func (h *BillingHandler) ListTransactions(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter billingapp.TransactionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.billingService.ListTransactions(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// HandleWebhook godoc
// @Summary      Stripe webhook
// @Description  Receives Stripe events. The raw body is verified against the Stripe-Signature header.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Stripe signature"
// @Success      200 {object} dto.Response{data=billingapp.WebhookResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo} "Invalid signature"
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo} "Billing disabled"
// @Router       /billing/webhook [post]
func (h *BillingHandler) HandleWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Could not read request body")
		return
	}
	signature := c.GetHeader(StripeSignatureHeader)
	if signature == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Missing "+StripeSignatureHeader+" header")
		return
	}

	result, err := h.webhookService.ProcessWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		logger.L(c.Request.Context()).Warn("Stripe webhook rejected", zap.Error(err))
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
