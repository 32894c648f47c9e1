package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"khata/internal/handlers"
	"khata/internal/logger"
	"khata/internal/middleware"
	"khata/internal/models"
	"khata/internal/remote"
	"khata/internal/services"
	"khata/internal/syncer"
	"khata/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Store  remote.DocumentStore
	Worker *syncer.Worker
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Ledger{},
		&models.Entry{},
		&models.Expense{},
		&models.Category{},
		&models.BackupSettings{},
		&models.OutboxEntry{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database and a miniredis-backed remote store.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := remote.NewRedisStoreFromClient(client)

	// Services
	userService := services.NewUserService(db)
	ledgerService := services.NewLedgerService(db)
	entryService := services.NewEntryService(db)
	expenseService := services.NewExpenseService(db)
	categoryService := services.NewCategoryService(db)
	settingsService := services.NewSettingsService(db)
	backupService := services.NewBackupService(db)

	coordinator := syncer.NewCoordinator(db, store, time.Minute)
	worker := syncer.NewWorker(db, store, time.Second)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, coordinator)
	entryHandler := handlers.NewEntryHandler(entryService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	backupHandler := handlers.NewBackupHandler(backupService)
	syncHandler := handlers.NewSyncHandler(coordinator, settingsService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.PUT("/profile/bank", authHandler.UpdateBankDetails)

	ledgers := protected.Group("/ledgers")
	ledgers.POST("", ledgerHandler.CreateLedger)
	ledgers.GET("", ledgerHandler.GetLedgers)
	ledgers.GET("/:id", ledgerHandler.GetLedger)
	ledgers.PUT("/:id", ledgerHandler.UpdateLedger)
	ledgers.DELETE("/:id", ledgerHandler.DeleteLedger)
	ledgers.POST("/:id/entries", entryHandler.CreateEntry)
	ledgers.GET("/:id/entries", entryHandler.GetEntries)

	entries := protected.Group("/entries")
	entries.GET("/:id", entryHandler.GetEntry)
	entries.PUT("/:id", entryHandler.UpdateEntry)
	entries.DELETE("/:id", entryHandler.DeleteEntry)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.GetCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	backup := protected.Group("/backup")
	backup.GET("/export", backupHandler.Export)
	backup.POST("/import", backupHandler.Import)

	sync := protected.Group("/sync")
	sync.POST("/push", syncHandler.Push)
	sync.POST("/pull", syncHandler.Pull)
	sync.GET("/status", syncHandler.Status)
	sync.PUT("/settings", syncHandler.UpdateSettings)

	return &testApp{DB: db, Store: store, Worker: worker, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access and refresh tokens.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"name":"Test User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createLedger creates a ledger and returns its ID.
func (app *testApp) createLedger(t *testing.T, token, name string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q}`, name)
	rec := app.request("POST", "/api/v1/ledgers", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ledger failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}

// addEntry adds an entry to a ledger and returns its ID.
func (app *testApp) addEntry(t *testing.T, token, ledgerID, entryType, amount string) string {
	t.Helper()
	body := fmt.Sprintf(`{"type":%q,"amount":%q}`, entryType, amount)
	rec := app.request("POST", "/api/v1/ledgers/"+ledgerID+"/entries", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add entry failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}
