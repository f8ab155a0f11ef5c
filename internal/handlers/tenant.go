package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradesdesk/workspace-api/internal/dto"
	apierrors "github.com/tradesdesk/workspace-api/internal/errors"
	"github.com/tradesdesk/workspace-api/internal/middleware"
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/services"
	"github.com/tradesdesk/workspace-api/internal/utils"
	"go.uber.org/zap"
)

// TenantHandler serves tenant administration and member listing.
type TenantHandler struct {
	tenantService *services.TenantService
	log           *zap.Logger
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(tenantService *services.TenantService, log *zap.Logger) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
		log:           log.Named("handlers.tenant"),
	}
}

// CreateTenant creates a tenant. Platform admins only.
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTenantRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tenant, err := h.tenantService.CreateTenant(c.Request.Context(), identity.UserID, req.Name)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTenantDTO(*tenant))
}

// ListTenants returns a page of tenants. Platform admins only.
func (h *TenantHandler) ListTenants(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	tenants, total, err := h.tenantService.ListTenants(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	out := make([]dto.TenantDTO, len(tenants))
	for i, t := range tenants {
		out[i] = dto.ToTenantDTO(t)
	}

	c.JSON(http.StatusOK, dto.TenantListDTO{
		Tenants: out,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// ListMembers returns every membership of the tenant with its user.
func (h *TenantHandler) ListMembers(c *gin.Context) {
	members, err := h.tenantService.ListMembers(c.Request.Context(), c.Param("tenantId"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": dto.ToMemberDTOs(members)})
}

// InviteMember adds a user to the tenant, creating the user when the
// username is new. Repeating an invite returns the existing membership.
func (h *TenantHandler) InviteMember(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type InviteRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Status   string `json:"status"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.InviteMemberInput{
		TenantID: c.Param("tenantId"),
		ActorID:  identity.UserID,
		Username: req.Username,
		Password: req.Password,
	}
	if req.Role != "" {
		role, err := models.ParseRole(req.Role)
		if err != nil {
			apierrors.BadRequestWithDetails(c, "Invalid role", gin.H{"allowed": models.Roles})
			return
		}
		input.Role = role
	}
	if req.Status != "" {
		status, err := models.ParseMembershipStatus(req.Status)
		if err != nil {
			apierrors.BadRequestWithDetails(c, "Invalid status", gin.H{"allowed": models.MembershipStatuses})
			return
		}
		input.Status = status
	}

	result, err := h.tenantService.InviteMember(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.InviteDTO{
		Membership:  dto.ToMembershipDTO(*result.Membership),
		User:        dto.ToUserDTO(*result.User),
		Created:     result.Created,
		UserCreated: result.UserCreated,
	})
}
