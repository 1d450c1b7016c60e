package handler

import (
	"context"

	partnerapp "github.com/bizdesk/backend/internal/application/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// partnerService is implemented by both SupplierService and CustomerService
type partnerService interface {
	Create(ctx context.Context, companyID, userID uuid.UUID, req partnerapp.ContactRequest) (*partnerapp.PartnerResponse, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*partnerapp.PartnerResponse, error)
	List(ctx context.Context, companyID uuid.UUID, filter partnerapp.ListFilter) (shared.Paginated[partnerapp.PartnerResponse], error)
	Update(ctx context.Context, companyID, id uuid.UUID, req partnerapp.ContactRequest) (*partnerapp.PartnerResponse, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

// partnerHandler holds the request handling shared by suppliers and customers
type partnerHandler struct {
	BaseHandler
	service partnerService
}

func (h *partnerHandler) create(c *gin.Context) {
	companyID, userID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req partnerapp.ContactRequest
	if !h.bindJSON(c, &req) {
		return
	}
	partner, err := h.service.Create(c.Request.Context(), companyID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, partner)
}

func (h *partnerHandler) getByID(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	partner, err := h.service.GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, partner)
}

func (h *partnerHandler) list(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter partnerapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.service.List(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *partnerHandler) update(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.ContactRequest
	if !h.bindJSON(c, &req) {
		return
	}
	partner, err := h.service.Update(c.Request.Context(), companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, partner)
}

func (h *partnerHandler) delete(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), companyID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
