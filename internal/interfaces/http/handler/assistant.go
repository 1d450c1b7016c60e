package handler

import (
	assistantapp "github.com/bizdesk/backend/internal/application/assistant"
	"github.com/gin-gonic/gin"
)

// AssistantHandler serves the AI assistant
type AssistantHandler struct {
	BaseHandler
	assistantService *assistantapp.AssistantService
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(assistantService *assistantapp.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// Ask godoc
// @Summary      Ask the assistant
// @Description  Answers a business question from the company's own data. Off-topic questions receive a fixed refusal.
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        request body assistantapp.AskRequest true "Question"
// @Success      200 {object} dto.Response{data=assistantapp.AskResponse}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo} "Daily quota exceeded"
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo} "Provider failure"
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo} "Assistant disabled"
// @Security     BearerAuth
// @Router       /assistant/ask [post]
func (h *AssistantHandler) Ask(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req assistantapp.AskRequest
	if !h.bindJSON(c, &req) {
		return
	}
	answer, err := h.assistantService.Ask(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, answer)
}
