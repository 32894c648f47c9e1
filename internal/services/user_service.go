package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "khata/internal/errors"
	"khata/internal/models"
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new user
func (s *userService) CreateUser(email, password, name string) (*models.User, error) {
	// Validate input
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	// Check if user with email exists
	var count int64
	s.db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:    strings.ToLower(email),
		Password: string(hashedPassword),
		Name:     name,
		IsActive: true,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// UpdateProfile updates the business profile fields that are provided.
func (s *userService) UpdateProfile(userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.Name != nil {
		updates["name"] = *update.Name
	}
	if update.BusinessName != nil {
		updates["business_name"] = *update.BusinessName
	}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if update.Address != nil {
		updates["address"] = *update.Address
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return user, nil
}

// UpdateBankDetails updates the bank detail fields that are provided.
func (s *userService) UpdateBankDetails(userID string, update BankDetailsUpdate) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.AccountName != nil {
		updates["bank_account_name"] = *update.AccountName
	}
	if update.AccountNumber != nil {
		updates["bank_account_number"] = *update.AccountNumber
	}
	if update.IFSC != nil {
		updates["bank_ifsc"] = *update.IFSC
	}
	if update.UPIID != nil {
		updates["upi_id"] = *update.UPIID
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return user, nil
}

// StoreRefreshTokenHash persists the hash of the user's current refresh token.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("refresh_token_hash", tokenHash).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash for a user.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}
