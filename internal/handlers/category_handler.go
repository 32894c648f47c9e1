package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "khata/internal/errors"
	"khata/internal/services"
)

// CategoryHandler handles expense category requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required,max=50"`
	Icon  string `json:"icon" binding:"max=50"`
	Color string `json:"color" binding:"omitempty,hex_color"`
}

// UpdateCategoryRequest represents the request payload for updating a category
type UpdateCategoryRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=50"`
	Icon  *string `json:"icon" binding:"omitempty,max=50"`
	Color *string `json:"color" binding:"omitempty,hex_color"`
}

// GetCategories handles listing the user's categories
// @Summary     List categories
// @Description Get the user's expense categories, defaults first. Default
// @Description categories are seeded on first access.
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Category "Categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.GetUserCategories(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory handles creating a custom category
// @Summary     Create a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(userID, req.Name, req.Icon, req.Color)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// UpdateCategory handles updating a custom category
// @Summary     Update a category
// @Description Update a custom category. Default categories cannot be modified.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to update"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Duplicate name or immutable category"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.UpdateCategory(userID, categoryID, req.Name, req.Icon, req.Color)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// DeleteCategory handles deleting a custom category
// @Summary     Delete a category
// @Description Delete a custom category. Default categories cannot be deleted.
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Immutable category"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
