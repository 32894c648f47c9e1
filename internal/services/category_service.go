package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "khata/internal/errors"
	"khata/internal/models"
	"khata/internal/remote"
)

// categoryService handles expense category business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// GetUserCategories returns the user's full category list, seeding the
// immutable default set on first access.
func (s *categoryService) GetUserCategories(userID string) ([]models.Category, error) {
	if err := s.seedDefaults(userID); err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Where("user_id = ?", userID).
		Order("is_default DESC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// seedDefaults inserts the default category set for a user that has none yet.
func (s *categoryService) seedDefaults(userID string) error {
	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, def := range models.DefaultCategories {
			category := def
			category.UserID = userID
			if err := tx.Create(&category).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}

// findDuplicate reports whether the user already has a category with this
// name, compared case-insensitively. excludeID skips the row being renamed.
func (s *categoryService) findDuplicate(userID, name, excludeID string) (bool, error) {
	q := s.db.Model(&models.Category{}).
		Where("user_id = ? AND LOWER(name) = ?", userID, strings.ToLower(name))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// CreateCategory adds a user-defined category.
func (s *categoryService) CreateCategory(userID, name, icon, color string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	if err := s.seedDefaults(userID); err != nil {
		return nil, err
	}

	dup, err := s.findDuplicate(userID, name, "")
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Icon:   icon,
		Color:  color,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.mirrorCategories(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

// UpdateCategory renames or restyles a user-defined category. Default
// categories are immutable.
func (s *categoryService) UpdateCategory(userID, categoryID string, name, icon, color *string) (*models.Category, error) {
	category, err := s.getByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsDefault {
		return nil, apperrors.ErrCategoryImmutable
	}

	if name != nil {
		if *name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		dup, err := s.findDuplicate(userID, *name, categoryID)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, apperrors.ErrDuplicateCategory
		}
	}

	updates := make(map[string]interface{})
	if name != nil {
		updates["name"] = *name
	}
	if icon != nil {
		updates["icon"] = *icon
	}
	if color != nil {
		updates["color"] = *color
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(category).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return s.mirrorCategories(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

// DeleteCategory removes a user-defined category. Default categories are
// immutable. Expenses keep their category name for historical records.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.getByID(userID, categoryID)
	if err != nil {
		return err
	}
	if category.IsDefault {
		return apperrors.ErrCategoryImmutable
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.mirrorCategories(tx, userID)
	})
}

func (s *categoryService) getByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// mirrorCategories queues an upsert of the single remote categories document,
// which always carries the full list.
func (s *categoryService) mirrorCategories(tx *gorm.DB, userID string) error {
	if !autoBackupEnabled(tx, userID) {
		return nil
	}
	var categories []models.Category
	if err := tx.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := recordUpsert(tx, userID, remote.CategoriesPath(userID), remote.NewCategoriesDoc(categories)); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
