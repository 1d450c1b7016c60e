package handler

import (
	tradeapp "github.com/bizdesk/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles sales invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *tradeapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *tradeapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Create godoc
// @Summary      Create a sales invoice
// @Description  Numbers the invoice, snapshots the customer and issues every line from stock in one transaction
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "Insufficient stock"
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	companyID, userID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req tradeapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), companyID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID godoc
// @Summary      Get a sales invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List godoc
// @Summary      List sales invoices
// @Tags         invoices
// @Produce      json
// @Param        search     query string false "Invoice number or customer name"
// @Param        status     query string false "UNPAID, PAID or CANCELLED"
// @Param        partner_id query string false "Customer ID"
// @Param        from       query string false "From date (YYYY-MM-DD)"
// @Param        to         query string false "To date (YYYY-MM-DD)"
// @Param        page       query int    false "Page number" default(1)
// @Param        page_size  query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]tradeapp.InvoiceResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter tradeapp.DocumentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.invoiceService.ListInvoices(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// MarkPaid godoc
// @Summary      Mark an invoice as paid
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "Invoice is not unpaid"
// @Security     BearerAuth
// @Router       /invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.MarkInvoicePaid(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Cancel godoc
// @Summary      Cancel a sales invoice
// @Description  Returns the issued stock
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "Already cancelled"
// @Security     BearerAuth
// @Router       /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	companyID, userID, ok := h.companyScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), companyID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}
