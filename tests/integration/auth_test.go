package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAuthFlow_RegisterLoginProfileRefresh(t *testing.T) {
	app := setupApp(t)

	// Step 1: Register
	accessToken, refreshToken := app.registerUser(t, "auth@test.com", "password123")
	if accessToken == "" || refreshToken == "" {
		t.Fatal("expected non-empty tokens from registration")
	}

	// Step 2: Login with same credentials
	loginAccess, loginRefresh := app.loginUser(t, "auth@test.com", "password123")
	if loginAccess == "" || loginRefresh == "" {
		t.Fatal("expected non-empty tokens from login")
	}

	// Step 3: Access profile with login access token
	rec := app.request("GET", "/api/v1/profile", "", loginAccess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["email"] != "auth@test.com" {
		t.Errorf("expected email auth@test.com, got %v", result["email"])
	}

	// Step 4: Refresh token
	body := fmt.Sprintf(`{"refresh_token":%q}`, loginRefresh)
	rec = app.request("POST", "/api/v1/auth/refresh", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	refreshResult := parseJSON(t, rec)
	newAccess := refreshResult["access_token"].(string)
	if newAccess == "" {
		t.Fatal("expected non-empty new access token after refresh")
	}

	// Step 5: Access profile with new access token
	rec = app.request("GET", "/api/v1/profile", "", newAccess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with new token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFlow_RegisterDuplicateEmail(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "dup@test.com", "password123")

	// Try to register again with same email
	rec := app.request("POST", "/api/v1/auth/register",
		`{"email":"dup@test.com","password":"password123","name":"Second"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "DUPLICATE_EMAIL" {
		t.Errorf("expected DUPLICATE_EMAIL, got %v", errObj["code"])
	}
}

func TestAuthFlow_LoginWrongPassword(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "wrong@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"wrong@test.com","password":"wrongpassword"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "INVALID_CREDENTIALS" {
		t.Errorf("expected INVALID_CREDENTIALS, got %v", errObj["code"])
	}
}

func TestAuthFlow_ProtectedRouteWithoutToken(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/ledgers", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFlow_RefreshTokenRejectedAsAccessToken(t *testing.T) {
	app := setupApp(t)

	_, refreshToken := app.registerUser(t, "tokens@test.com", "password123")

	rec := app.request("GET", "/api/v1/profile", "", refreshToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token used as access token, got %d", rec.Code)
	}
}

func TestAuthFlow_UpdateProfileAndBankDetails(t *testing.T) {
	app := setupApp(t)

	accessToken, _ := app.registerUser(t, "shop@test.com", "password123")

	rec := app.request("PUT", "/api/v1/profile",
		`{"business_name":"Kumar Traders","phone":"9876543210"}`, accessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["business_name"] != "Kumar Traders" {
		t.Errorf("expected business name updated, got %v", result["business_name"])
	}

	rec = app.request("PUT", "/api/v1/profile/bank",
		`{"bank_account_name":"Ramesh Kumar","bank_account_number":"1234567890","bank_ifsc":"HDFC0001234","upi_id":"ramesh@upi"}`, accessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	if result["upi_id"] != "ramesh@upi" {
		t.Errorf("expected UPI ID updated, got %v", result["upi_id"])
	}
}
