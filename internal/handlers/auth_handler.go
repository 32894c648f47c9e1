package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "khata/internal/errors"
	"khata/internal/middleware"
	"khata/internal/models"
	"khata/internal/services"
)

// AuthHandler handles registration, login, token refresh, and profile management.
type AuthHandler struct {
	userService services.UserServicer
}

func NewAuthHandler(userService services.UserServicer) *AuthHandler {
	return &AuthHandler{userService: userService}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates a user account and returns an access/refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(req.Email, req.Password, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tokens)
}

// Login godoc
// @Summary Log in
// @Description Verifies credentials and returns an access/refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.GetUserByEmail(req.Email)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}
	if !h.userService.VerifyPassword(user, req.Password) {
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// Refresh godoc
// @Summary Refresh tokens
// @Description Exchanges a valid refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	claims, err := middleware.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	storedHash, err := h.userService.GetRefreshTokenHash(claims.UserID)
	if err != nil || storedHash == "" || storedHash != middleware.HashToken(req.RefreshToken) {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// GetProfile godoc
// @Summary Get the current user's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type UpdateProfileRequest struct {
	Name         *string `json:"name"`
	BusinessName *string `json:"business_name"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Fields to update"
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.UpdateProfile(userID, services.ProfileUpdate{
		Name:         req.Name,
		BusinessName: req.BusinessName,
		Phone:        req.Phone,
		Address:      req.Address,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type UpdateBankDetailsRequest struct {
	AccountName   *string `json:"bank_account_name"`
	AccountNumber *string `json:"bank_account_number"`
	IFSC          *string `json:"bank_ifsc"`
	UPIID         *string `json:"upi_id"`
}

// UpdateBankDetails godoc
// @Summary Update the current user's bank details
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateBankDetailsRequest true "Bank details"
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /profile/bank [put]
func (h *AuthHandler) UpdateBankDetails(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBankDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.UpdateBankDetails(userID, services.BankDetailsUpdate{
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
		UPIID:         req.UPIID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) issueTokens(user *models.User) (*TokenResponse, error) {
	access, err := middleware.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	refresh, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(refresh)); err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}

// ErrorDetail describes a single error in an API response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error envelope returned by the API.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
