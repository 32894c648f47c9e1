package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "khata/internal/errors"
	"khata/internal/middleware"
	"khata/internal/models"
	"khata/internal/services"
	"khata/internal/validator"
)

// --- mock user service ---

type mockUserService struct {
	createUserFn            func(email, password, name string) (*models.User, error)
	getUserByEmailFn        func(email string) (*models.User, error)
	getUserByIDFn           func(id string) (*models.User, error)
	verifyPasswordFn        func(user *models.User, password string) bool
	updateProfileFn         func(userID string, update services.ProfileUpdate) (*models.User, error)
	updateBankDetailsFn     func(userID string, update services.BankDetailsUpdate) (*models.User, error)
	storeRefreshTokenHashFn func(userID, tokenHash string) error
	getRefreshTokenHashFn   func(userID string) (string, error)
}

func (m *mockUserService) CreateUser(email, password, name string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, name)
	}
	return &models.User{Email: email, Name: name}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{Email: email}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

func (m *mockUserService) UpdateProfile(userID string, update services.ProfileUpdate) (*models.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(userID, update)
	}
	return &models.User{Base: models.Base{ID: userID}}, nil
}

func (m *mockUserService) UpdateBankDetails(userID string, update services.BankDetailsUpdate) (*models.User, error) {
	if m.updateBankDetailsFn != nil {
		return m.updateBankDetailsFn(userID, update)
	}
	return &models.User{Base: models.Base{ID: userID}}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(userID, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(userID string) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(userID)
	}
	return "", nil
}

// --- test helpers ---

const testUserID = "01929a6e-0000-7000-8000-000000000001"

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/refresh", handler.Refresh)
	r.GET("/profile", injectUserID(testUserID), handler.GetProfile)
	r.PUT("/profile", injectUserID(testUserID), handler.UpdateProfile)
	r.PUT("/profile/bank", injectUserID(testUserID), handler.UpdateBankDetails)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with token pair", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(email, _, name string) (*models.User, error) {
				return &models.User{
					Base:  models.Base{ID: testUserID},
					Email: email,
					Name:  name,
				}, nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"ramesh@example.com","password":"password123","name":"Ramesh Kumar"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == nil || result["access_token"] == "" {
			t.Error("expected non-empty access_token")
		}
		if result["refresh_token"] == nil || result["refresh_token"] == "" {
			t.Error("expected non-empty refresh_token")
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"ramesh@example.com","password":"password123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"ramesh@example.com","password":"short","name":"Ramesh"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid email format", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"not-an-email","password":"password123","name":"Ramesh"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(_, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"dup@example.com","password":"password123","name":"Ramesh"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})

	t.Run("stores refresh token hash", func(t *testing.T) {
		var storedHash string
		userSvc := &mockUserService{
			storeRefreshTokenHashFn: func(_, hash string) error {
				storedHash = hash
				return nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"ramesh@example.com","password":"password123","name":"Ramesh"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if storedHash == "" {
			t.Error("refresh token hash was not stored")
		}
		if len(storedHash) != 64 {
			t.Errorf("expected SHA-256 hex digest (64 chars), got %d chars", len(storedHash))
		}
	})

	t.Run("returns 500 when token storage fails", func(t *testing.T) {
		userSvc := &mockUserService{
			storeRefreshTokenHashFn: func(_, _ string) error {
				return fmt.Errorf("db connection lost")
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"ramesh@example.com","password":"password123","name":"Ramesh"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with token pair", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(email string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"ramesh@example.com","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == nil || result["access_token"] == "" {
			t.Error("expected non-empty access_token")
		}
		if result["refresh_token"] == nil || result["refresh_token"] == "" {
			t.Error("expected non-empty refresh_token")
		}
	})

	t.Run("returns 401 on unknown email", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(_ string) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"nobody@example.com","password":"password123"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 401 on wrong password", func(t *testing.T) {
		userSvc := &mockUserService{
			verifyPasswordFn: func(_ *models.User, _ string) bool { return false },
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"ramesh@example.com","password":"wrong-password"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 400 on missing fields", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	issueRefreshToken := func(t *testing.T) string {
		t.Helper()
		token, err := middleware.GenerateRefreshToken(&models.User{
			Base:  models.Base{ID: testUserID},
			Email: "ramesh@example.com",
		})
		if err != nil {
			t.Fatalf("generating refresh token: %v", err)
		}
		return token
	}

	t.Run("returns 200 with fresh token pair", func(t *testing.T) {
		token := issueRefreshToken(t)
		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(_ string) (string, error) {
				return middleware.HashToken(token), nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/refresh",
			fmt.Sprintf(`{"refresh_token":%q}`, token))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == nil || result["access_token"] == "" {
			t.Error("expected non-empty access_token")
		}
	})

	t.Run("returns 401 on garbage token", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/refresh", `{"refresh_token":"not-a-jwt"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 401 when access token presented as refresh token", func(t *testing.T) {
		access, err := middleware.GenerateAccessToken(&models.User{
			Base:  models.Base{ID: testUserID},
			Email: "ramesh@example.com",
		})
		if err != nil {
			t.Fatalf("generating access token: %v", err)
		}
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/refresh",
			fmt.Sprintf(`{"refresh_token":%q}`, access))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 401 when stored hash does not match", func(t *testing.T) {
		token := issueRefreshToken(t)
		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(_ string) (string, error) {
				// Hash of some other, already rotated token.
				return middleware.HashToken("previous-token"), nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/refresh",
			fmt.Sprintf(`{"refresh_token":%q}`, token))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Profile(t *testing.T) {
	t.Run("get returns 200 with user", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{
					Base:  models.Base{ID: id},
					Email: "ramesh@example.com",
					Name:  "Ramesh Kumar",
				}, nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["email"] != "ramesh@example.com" {
			t.Errorf("expected ramesh@example.com, got %v", result["email"])
		}
		if result["name"] != "Ramesh Kumar" {
			t.Errorf("expected Ramesh Kumar, got %v", result["name"])
		}
	})

	t.Run("get returns 401 without auth context", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := gin.New()
		r.GET("/profile", handler.GetProfile)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("update passes only provided fields", func(t *testing.T) {
		var got services.ProfileUpdate
		userSvc := &mockUserService{
			updateProfileFn: func(userID string, update services.ProfileUpdate) (*models.User, error) {
				got = update
				return &models.User{Base: models.Base{ID: userID}}, nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "PUT", "/profile", `{"business_name":"Kumar Traders"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.BusinessName == nil || *got.BusinessName != "Kumar Traders" {
			t.Error("expected business name forwarded to the service")
		}
		if got.Name != nil || got.Phone != nil || got.Address != nil {
			t.Error("omitted fields must stay nil")
		}
	})

	t.Run("bank details update returns 200", func(t *testing.T) {
		var got services.BankDetailsUpdate
		userSvc := &mockUserService{
			updateBankDetailsFn: func(userID string, update services.BankDetailsUpdate) (*models.User, error) {
				got = update
				return &models.User{Base: models.Base{ID: userID}}, nil
			},
		}
		handler := NewAuthHandler(userSvc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "PUT", "/profile/bank",
			`{"bank_account_name":"Ramesh Kumar","bank_ifsc":"HDFC0001234","upi_id":"ramesh@upi"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.IFSC == nil || *got.IFSC != "HDFC0001234" {
			t.Error("expected IFSC forwarded to the service")
		}
		if got.AccountNumber != nil {
			t.Error("omitted account number must stay nil")
		}
	})
}
