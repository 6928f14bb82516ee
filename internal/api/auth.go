// Package api - authentication handlers
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aethra/hera/internal/auth"
	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/models"
)

type loginRequest struct {
	OrganizationCode string `json:"organization_code" binding:"required"`
	Email            string `json:"email" binding:"required"`
	Password         string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login authenticates a user and returns a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	// The same email may exist in several organizations, so the lookup is
	// always scoped by the organization code.
	var org models.Organization
	err := h.db.WithContext(c.Request.Context()).
		Where("code = ? AND is_active = ?", req.OrganizationCode, true).
		First(&org).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(c, apperrors.NewUnauthorizedError("invalid credentials"))
			return
		}
		respondError(c, apperrors.NewInternalError(err))
		return
	}

	var user models.User
	err = h.db.WithContext(c.Request.Context()).
		Where("organization_id = ? AND email = ? AND is_active = ?", org.ID, req.Email, true).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(c, apperrors.NewUnauthorizedError("invalid credentials"))
			return
		}
		respondError(c, apperrors.NewInternalError(err))
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondError(c, apperrors.NewUnauthorizedError("invalid credentials"))
		return
	}

	tokens, err := h.jwt.GenerateTokenPair(user.ID, user.OrganizationID, user.Email, user.Roles)
	if err != nil {
		respondError(c, apperrors.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// RefreshToken issues a new token pair from a valid refresh token.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	claims, err := h.jwt.ValidateToken(req.RefreshToken)
	if err != nil {
		respondError(c, apperrors.NewUnauthorizedError("invalid refresh token"))
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND is_active = ?", claims.UserID, true).
		First(&user).Error; err != nil {
		respondError(c, apperrors.NewUnauthorizedError("invalid refresh token"))
		return
	}

	tokens, err := h.jwt.RefreshAccessToken(req.RefreshToken, user.Email, user.Roles)
	if err != nil {
		respondError(c, apperrors.NewUnauthorizedError("invalid refresh token"))
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// GetMe returns the authenticated user's profile.
func (h *Handler) GetMe(c *gin.Context) {
	userID := userOf(c)
	if userID == nil {
		respondError(c, apperrors.NewUnauthorizedError(""))
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ?", *userID).
		First(&user).Error; err != nil {
		respondError(c, apperrors.NewNotFoundError("user"))
		return
	}
	c.JSON(http.StatusOK, user)
}
