package handler

import (
	supportapp "github.com/bizdesk/backend/internal/application/support"
	"github.com/gin-gonic/gin"
)

// TicketHandler serves support tickets to company members
type TicketHandler struct {
	BaseHandler
	ticketService *supportapp.TicketService
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(ticketService *supportapp.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// Create godoc
// @Summary      Open a support ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        request body supportapp.CreateTicketRequest true "Ticket"
// @Success      201 {object} dto.Response{data=supportapp.TicketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tickets [post]
func (h *TicketHandler) Create(c *gin.Context) {
	companyID, userID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req supportapp.CreateTicketRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ticket, err := h.ticketService.CreateTicket(c.Request.Context(), companyID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ticket)
}

// List godoc
// @Summary      List the company's tickets
// @Tags         tickets
// @Produce      json
// @Param        search     query string false "Subject"
// @Param        status     query string false "OPEN, IN_PROGRESS, RESOLVED or CLOSED"
// @Param        priority   query string false "LOW, MEDIUM, HIGH or URGENT"
// @Param        department query string false "GENERAL, BILLING, TECHNICAL or SALES"
// @Param        page       query int    false "Page number" default(1)
// @Param        page_size  query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]supportapp.TicketResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /tickets [get]
func (h *TicketHandler) List(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter supportapp.TicketListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.ticketService.ListTickets(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetByID godoc
// @Summary      Get a ticket with its messages
// @Tags         tickets
// @Produce      json
// @Param        id path string true "Ticket ID"
// @Success      200 {object} dto.Response{data=supportapp.TicketResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tickets/{id} [get]
func (h *TicketHandler) GetByID(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ticket, err := h.ticketService.GetTicket(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// AddMessage godoc
// @Summary      Reply on a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Ticket ID"
// @Param        request body supportapp.AddMessageRequest true "Message"
// @Success      201 {object} dto.Response{data=supportapp.MessageResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "Ticket closed"
// @Security     BearerAuth
// @Router       /tickets/{id}/messages [post]
func (h *TicketHandler) AddMessage(c *gin.Context) {
	companyID, userID, ok := h.companyScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req supportapp.AddMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	msg, err := h.ticketService.AddMessage(c.Request.Context(), companyID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

// Close godoc
// @Summary      Close a ticket
// @Tags         tickets
// @Produce      json
// @Param        id path string true "Ticket ID"
// @Success      200 {object} dto.Response{data=supportapp.TicketResponse}
// @Security     BearerAuth
// @Router       /tickets/{id}/close [post]
func (h *TicketHandler) Close(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ticket, err := h.ticketService.CloseTicket(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}
