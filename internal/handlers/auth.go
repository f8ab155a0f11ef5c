package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradesdesk/workspace-api/internal/dto"
	apierrors "github.com/tradesdesk/workspace-api/internal/errors"
	"github.com/tradesdesk/workspace-api/internal/middleware"
	"github.com/tradesdesk/workspace-api/internal/services"
	"go.uber.org/zap"
)

const resetRequestedMessage = "If the account exists, password reset instructions have been sent"

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService  *services.AuthService
	resetService *services.PasswordResetService
	log          *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, resetService *services.PasswordResetService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		resetService: resetService,
		log:          log.Named("handlers.auth"),
	}
}

// Register creates a user with their own tenant and returns a token.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Username   string `json:"username" binding:"required"`
		Password   string `json:"password" binding:"required"`
		TenantName string `json:"tenant_name"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	session, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Username:   req.Username,
		Password:   req.Password,
		TenantName: req.TenantName,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	tenant := dto.ToTenantDTO(*session.Tenant)
	membership := dto.ToMembershipDTO(*session.Membership)
	c.JSON(http.StatusCreated, dto.SessionDTO{
		Token:      session.Token,
		User:       dto.ToUserDTO(*session.User),
		Tenant:     &tenant,
		Membership: &membership,
	})
}

// Login authenticates a user and returns a token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.SessionDTO{
		Token: session.Token,
		User:  dto.ToUserDTO(*session.User),
	})
}

// GetCurrentUser returns the authenticated user and their memberships.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	profile, err := h.authService.Me(c.Request.Context(), identity)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProfileDTO{
		User:        dto.ToUserDTO(*profile.User),
		Memberships: dto.ToMembershipDTOs(profile.Memberships),
	})
}

// RequestPasswordReset issues a reset token. The response never reveals
// whether the username exists.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	type ResetRequest struct {
		Username string `json:"username" binding:"required"`
	}

	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.resetService.RequestReset(c.Request.Context(), req.Username); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": resetRequestedMessage})
}

// ConfirmPasswordReset redeems a reset token and sets the new password.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	type ConfirmRequest struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ok, err := h.resetService.ConsumeResetToken(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if !ok {
		apierrors.RespondWithError(c, http.StatusBadRequest,
			apierrors.NewAPIError(apierrors.ErrCodeInvalidToken, "Invalid or expired reset token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
