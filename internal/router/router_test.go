package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/cache"
	"github.com/inkpress/internal/config"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/handler"
	"github.com/inkpress/internal/storage"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := gdb.AutoMigrate(&db.User{}, &db.Author{}, &db.Category{}, &db.Tag{}, &db.Post{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	if err := db.EnsureUser(gdb, "admin", "secret"); err != nil {
		t.Fatalf("failed to seed admin user: %v", err)
	}

	media, err := storage.NewLocalStorage(t.TempDir(), "/static/uploads")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	cfg := config.AppConfig{
		GinMode:       gin.TestMode,
		SessionSecret: "test-secret",
		UploadDir:     t.TempDir(),
		UploadURLPath: "/static/uploads",
	}

	api := handler.NewAPI(gdb, cache.New(time.Minute), media, zap.NewNop())
	return Setup(cfg, api, zap.NewNop())
}

func TestPing(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestAdminAPIRequiresSession(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/api/posts", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestLoginGrantsAdminAccess(t *testing.T) {
	r := setupTestRouter(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "secret"})
	login := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	login.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, login)
	if w.Code != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d: %s", w.Code, w.Body.String())
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected a session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/api/posts", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 with session, got %d", w.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	r := setupTestRouter(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestPublicPostListing(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts?page=1&size=5", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}
