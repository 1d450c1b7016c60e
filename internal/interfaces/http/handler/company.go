package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/bizdesk/backend/internal/application/identity"
	"github.com/bizdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// maxUploadBytes is the hard ceiling for multipart uploads; services apply
// the configured, usually smaller, limit
const maxUploadBytes = 32 << 20

// CompanyHandler serves the company profile, settings, members and uploads
type CompanyHandler struct {
	BaseHandler
	companyService *identity.CompanyService
	memberService  *identity.MemberService
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companyService *identity.CompanyService, memberService *identity.MemberService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		memberService:  memberService,
	}
}

// GetCompany godoc
// @Summary      Get company
// @Tags         company
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.CompanyResponse}
// @Security     BearerAuth
// @Router       /company [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	company, err := h.companyService.GetCompany(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, company)
}

// UpdateCompany godoc
// @Summary      Update company profile
// @Tags         company
// @Accept       json
// @Produce      json
// @Param        request body identity.UpdateCompanyRequest true "Company profile"
// @Success      200 {object} dto.Response{data=identity.CompanyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /company [put]
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req identity.UpdateCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	company, err := h.companyService.UpdateCompany(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, company)
}

// UploadLogo godoc
// @Summary      Upload company logo
// @Description  Accepts a PNG, JPEG or GIF in the "file" form field; the image is resized before storage
// @Tags         company
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Logo image"
// @Success      200 {object} dto.Response{data=identity.CompanyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /company/logo [post]
func (h *CompanyHandler) UploadLogo(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	data, _, ok := h.readUpload(c)
	if !ok {
		return
	}
	company, err := h.companyService.UploadLogo(c.Request.Context(), companyID, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, company)
}

// GetSettings godoc
// @Summary      Get company settings
// @Tags         company
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.SettingsResponse}
// @Security     BearerAuth
// @Router       /company/settings [get]
func (h *CompanyHandler) GetSettings(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	settings, err := h.companyService.GetSettings(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// UpdateSettings godoc
// @Summary      Update company settings
// @Description  Partial update; omitted fields keep their value
// @Tags         company
// @Accept       json
// @Produce      json
// @Param        request body identity.UpdateSettingsRequest true "Settings"
// @Success      200 {object} dto.Response{data=identity.SettingsResponse}
// @Security     BearerAuth
// @Router       /company/settings [put]
func (h *CompanyHandler) UpdateSettings(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req identity.UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	settings, err := h.companyService.UpdateSettings(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// ListMembers godoc
// @Summary      List company members
// @Tags         company
// @Produce      json
// @Param        search    query string false "Name or email"
// @Param        role      query string false "OWNER or EMPLOYEE"
// @Param        page      query int    false "Page"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]identity.MemberResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /company/members [get]
func (h *CompanyHandler) ListMembers(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var filter identity.MemberListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.memberService.ListMembers(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// InviteMember godoc
// @Summary      Add a member
// @Description  Adds an existing user by email, or creates the account and emails an invitation
// @Tags         company
// @Accept       json
// @Produce      json
// @Param        request body identity.InviteMemberRequest true "Member"
// @Success      201 {object} dto.Response{data=identity.MemberResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /company/members [post]
func (h *CompanyHandler) InviteMember(c *gin.Context) {
	companyID, userID, ok := h.companyScope(c)
	if !ok {
		return
	}
	var req identity.InviteMemberRequest
	if !h.bindJSON(c, &req) {
		return
	}
	member, err := h.memberService.InviteMember(c.Request.Context(), companyID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, member)
}

// ChangeMemberRole godoc
// @Summary      Change a member's role
// @Tags         company
// @Accept       json
// @Produce      json
// @Param        userId  path string                     true "User ID"
// @Param        request body identity.ChangeRoleRequest true "Role"
// @Success      200 {object} dto.Response{data=identity.MemberResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo} "Last owner"
// @Security     BearerAuth
// @Router       /company/members/{userId} [put]
func (h *CompanyHandler) ChangeMemberRole(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	memberID, ok := h.pathID(c, "userId")
	if !ok {
		return
	}
	var req identity.ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	member, err := h.memberService.ChangeMemberRole(c.Request.Context(), companyID, memberID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, member)
}

// RemoveMember godoc
// @Summary      Remove a member
// @Tags         company
// @Param        userId path string true "User ID"
// @Success      204
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo} "Last owner"
// @Security     BearerAuth
// @Router       /company/members/{userId} [delete]
func (h *CompanyHandler) RemoveMember(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	memberID, ok := h.pathID(c, "userId")
	if !ok {
		return
	}
	if err := h.memberService.RemoveMember(c.Request.Context(), companyID, memberID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UploadFile godoc
// @Summary      Upload a file
// @Description  Stores an arbitrary file under the company's prefix and returns a signed URL
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "File"
// @Success      201 {object} dto.Response{data=identity.FileUploadResponse}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /files [post]
func (h *CompanyHandler) UploadFile(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	data, filename, ok := h.readUpload(c)
	if !ok {
		return
	}
	file, err := h.companyService.UploadFile(c.Request.Context(), companyID, filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, file)
}

// readUpload reads the "file" multipart field into memory
func (h *BaseHandler) readUpload(c *gin.Context) ([]byte, string, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge, "File exceeds maximum allowed size")
			return nil, "", false
		}
		h.BadRequest(c, "Multipart field \"file\" is required")
		return nil, "", false
	}
	if header.Size > maxUploadBytes {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge, "File exceeds maximum allowed size")
		return nil, "", false
	}
	if header.Size == 0 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeEmptyFile, "File is empty")
		return nil, "", false
	}

	f, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Could not read uploaded file")
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		h.BadRequest(c, "Could not read uploaded file")
		return nil, "", false
	}
	return data, header.Filename, true
}
