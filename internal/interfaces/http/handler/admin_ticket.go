package handler

import (
	supportapp "github.com/bizdesk/backend/internal/application/support"
	"github.com/gin-gonic/gin"
)

// AdminTicketHandler serves the platform support desk. Every route requires
// the platform ADMIN role and spans all companies.
type AdminTicketHandler struct {
	BaseHandler
	ticketService *supportapp.TicketService
}

// NewAdminTicketHandler creates a new AdminTicketHandler
func NewAdminTicketHandler(ticketService *supportapp.TicketService) *AdminTicketHandler {
	return &AdminTicketHandler{ticketService: ticketService}
}

// List godoc
// @Summary      List tickets across companies
// @Tags         admin
// @Produce      json
// @Param        search      query string false "Subject"
// @Param        status      query string false "Status"
// @Param        priority    query string false "Priority"
// @Param        department  query string false "Department"
// @Param        company_id  query string false "Company ID"
// @Param        assigned_to query string false "Admin user ID"
// @Param        unassigned  query bool   false "Only unassigned tickets"
// @Param        page        query int    false "Page number" default(1)
// @Param        page_size   query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]supportapp.TicketResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/tickets [get]
func (h *AdminTicketHandler) List(c *gin.Context) {
	var filter supportapp.TicketListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.ticketService.ListAllTickets(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Stats godoc
// @Summary      Ticket statistics
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=support.Stats}
// @Security     BearerAuth
// @Router       /admin/tickets/stats [get]
func (h *AdminTicketHandler) Stats(c *gin.Context) {
	stats, err := h.ticketService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// GetByID godoc
// @Summary      Get any ticket
// @Tags         admin
// @Produce      json
// @Param        id path string true "Ticket ID"
// @Success      200 {object} dto.Response{data=supportapp.TicketResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tickets/{id} [get]
func (h *AdminTicketHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ticket, err := h.ticketService.AdminGetTicket(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// Assign godoc
// @Summary      Assign a ticket
// @Description  The assignee must be an active platform admin. An OPEN ticket moves to IN_PROGRESS.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Ticket ID"
// @Param        request body supportapp.AssignTicketRequest true "Assignee"
// @Success      200 {object} dto.Response{data=supportapp.TicketResponse}
// @Security     BearerAuth
// @Router       /admin/tickets/{id}/assign [put]
func (h *AdminTicketHandler) Assign(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req supportapp.AssignTicketRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ticket, err := h.ticketService.AssignTicket(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// UpdateStatus godoc
// @Summary      Change ticket status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Ticket ID"
// @Param        request body supportapp.UpdateStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=supportapp.TicketResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo} "Transition not allowed"
// @Security     BearerAuth
// @Router       /admin/tickets/{id}/status [put]
func (h *AdminTicketHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req supportapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ticket, err := h.ticketService.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// UpdatePriority godoc
// @Summary      Change ticket priority
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Ticket ID"
// @Param        request body supportapp.UpdatePriorityRequest true "Priority"
// @Success      200 {object} dto.Response{data=supportapp.TicketResponse}
// @Security     BearerAuth
// @Router       /admin/tickets/{id}/priority [put]
func (h *AdminTicketHandler) UpdatePriority(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req supportapp.UpdatePriorityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ticket, err := h.ticketService.UpdatePriority(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// Reply godoc
// @Summary      Staff reply on a ticket
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Ticket ID"
// @Param        request body supportapp.AddMessageRequest true "Message"
// @Success      201 {object} dto.Response{data=supportapp.MessageResponse}
// @Security     BearerAuth
// @Router       /admin/tickets/{id}/reply [post]
func (h *AdminTicketHandler) Reply(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
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
	msg, err := h.ticketService.StaffReply(c.Request.Context(), adminID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

// Delete godoc
// @Summary      Delete a ticket
// @Tags         admin
// @Param        id path string true "Ticket ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/tickets/{id} [delete]
func (h *AdminTicketHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ticketService.DeleteTicket(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
