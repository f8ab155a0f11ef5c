package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradesdesk/workspace-api/internal/dto"
	apierrors "github.com/tradesdesk/workspace-api/internal/errors"
	"github.com/tradesdesk/workspace-api/internal/middleware"
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/services"
	"go.uber.org/zap"
)

// MembershipHandler serves membership updates.
type MembershipHandler struct {
	tenantService *services.TenantService
	log           *zap.Logger
}

// NewMembershipHandler creates a new MembershipHandler.
func NewMembershipHandler(tenantService *services.TenantService, log *zap.Logger) *MembershipHandler {
	return &MembershipHandler{
		tenantService: tenantService,
		log:           log.Named("handlers.membership"),
	}
}

// UpdateMembership changes the role and/or status of a membership.
func (h *MembershipHandler) UpdateMembership(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type UpdateMembershipRequest struct {
		Role   *string `json:"role"`
		Status *string `json:"status"`
	}

	var req UpdateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var patch models.MembershipPatch
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			apierrors.BadRequestWithDetails(c, "Invalid role", gin.H{"allowed": models.Roles})
			return
		}
		patch.Role = &role
	}
	if req.Status != nil {
		status, err := models.ParseMembershipStatus(*req.Status)
		if err != nil {
			apierrors.BadRequestWithDetails(c, "Invalid status", gin.H{"allowed": models.MembershipStatuses})
			return
		}
		patch.Status = &status
	}

	membership, err := h.tenantService.UpdateMembership(c.Request.Context(), identity.UserID, c.Param("membershipId"), patch)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembershipDTO(*membership))
}
