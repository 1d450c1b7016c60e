package handler

import (
	inventoryapp "github.com/bizdesk/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// StockHandler handles stock movement endpoints
type StockHandler struct {
	BaseHandler
	stockService *inventoryapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *inventoryapp.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// RecordMovement godoc
// @Summary      Record a stock movement
// @Description  IN adds, OUT removes and ADJUSTMENT sets the on-hand quantity. The product row is locked for the update.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.RecordMovementRequest true "Movement"
// @Success      201 {object} dto.Response{data=inventoryapp.MovementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "Insufficient stock or deleted product"
// @Security     BearerAuth
// @Router       /stock/movements [post]
func (h *StockHandler) RecordMovement(c *gin.Context) {
	companyID, userID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req inventoryapp.RecordMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movement, err := h.stockService.RecordMovement(c.Request.Context(), companyID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// GetMovement godoc
// @Summary      Get a stock movement
// @Tags         stock
// @Produce      json
// @Param        id path string true "Movement ID"
// @Success      200 {object} dto.Response{data=inventoryapp.MovementResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/movements/{id} [get]
func (h *StockHandler) GetMovement(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	movement, err := h.stockService.GetMovement(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movement)
}

// ListMovements godoc
// @Summary      List stock movements
// @Tags         stock
// @Produce      json
// @Param        product_id     query string false "Product ID"
// @Param        type           query string false "IN, OUT or ADJUSTMENT"
// @Param        reference_type query string false "MANUAL, ORDER, INVOICE or PRODUCT"
// @Param        reference_id   query string false "Order or invoice ID"
// @Param        from           query string false "From date (YYYY-MM-DD)"
// @Param        to             query string false "To date (YYYY-MM-DD)"
// @Param        page           query int    false "Page number" default(1)
// @Param        page_size      query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]inventoryapp.MovementResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter inventoryapp.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.stockService.ListMovements(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}
