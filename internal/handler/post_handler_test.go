package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/cache"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/storage"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestAPI(t *testing.T) (*API, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	media, err := storage.NewLocalStorage(t.TempDir(), "/static/uploads")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	return NewAPI(gdb, cache.New(time.Minute), media, zap.NewNop()), gdb
}

func seedPostFixture(t *testing.T, gdb *gorm.DB) (db.Author, db.Category, db.Post, db.Post) {
	t.Helper()

	author := db.Author{FullName: "Alice Nguyen", UrlSlug: "alice-nguyen", JoinedDate: time.Now()}
	category := db.Category{Name: "Go", UrlSlug: "go"}
	if err := gdb.Create(&author).Error; err != nil {
		t.Fatalf("seed author: %v", err)
	}
	if err := gdb.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	published := db.Post{
		Title:       "Go Modules Guide",
		Description: "# Heading\n\nBody text.",
		UrlSlug:     "go-modules-guide",
		Published:   true,
		PostedDate:  time.Date(2023, 1, 15, 10, 0, 0, 0, time.UTC),
		AuthorID:    author.ID,
		CategoryID:  category.ID,
	}
	draft := db.Post{
		Title:      "Draft Thoughts",
		UrlSlug:    "draft-thoughts",
		Published:  false,
		PostedDate: time.Date(2023, 2, 25, 8, 0, 0, 0, time.UTC),
		AuthorID:   author.ID,
		CategoryID: category.ID,
	}
	if err := gdb.Create(&published).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	if err := gdb.Create(&draft).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return author, category, published, draft
}

func TestListPublishedPostsExcludesDrafts(t *testing.T) {
	api, gdb := setupTestAPI(t)
	seedPostFixture(t, gdb)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/posts", nil)

	api.ListPublishedPosts(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var page struct {
		Items          []db.Post `json:"items"`
		TotalItemCount int64     `json:"totalItemCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if page.TotalItemCount != 1 || len(page.Items) != 1 {
		t.Fatalf("expected only the published post, got %+v", page)
	}
	if page.Items[0].UrlSlug != "go-modules-guide" {
		t.Fatalf("unexpected post: %s", page.Items[0].UrlSlug)
	}
}

func TestGetPublishedPostRendersBodyAndCountsView(t *testing.T) {
	api, gdb := setupTestAPI(t)
	_, _, published, _ := seedPostFixture(t, gdb)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/posts/2023/1/go-modules-guide", nil)
	c.Params = gin.Params{
		{Key: "year", Value: "2023"},
		{Key: "month", Value: "1"},
		{Key: "slug", Value: "go-modules-guide"},
	}

	api.GetPublishedPost(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Post db.Post `json:"post"`
		HTML string  `json:"html"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Post.ViewCount != 1 {
		t.Fatalf("expected view count 1, got %d", resp.Post.ViewCount)
	}
	if resp.HTML == "" {
		t.Fatalf("expected rendered html")
	}

	var reloaded db.Post
	if err := gdb.First(&reloaded, published.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.ViewCount != 1 {
		t.Fatalf("view count not persisted: %d", reloaded.ViewCount)
	}
}

func TestGetPublishedPostHidesDrafts(t *testing.T) {
	api, gdb := setupTestAPI(t)
	seedPostFixture(t, gdb)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/posts/2023/2/draft-thoughts", nil)
	c.Params = gin.Params{
		{Key: "year", Value: "2023"},
		{Key: "month", Value: "2"},
		{Key: "slug", Value: "draft-thoughts"},
	}

	api.GetPublishedPost(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestCreatePostRejectsMissingTitle(t *testing.T) {
	api, gdb := setupTestAPI(t)
	author, category, _, _ := seedPostFixture(t, gdb)

	payload := map[string]any{"authorId": author.ID, "categoryId": category.ID}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/admin/api/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.CreatePost(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestCreatePostSlugConflict(t *testing.T) {
	api, gdb := setupTestAPI(t)
	author, category, _, _ := seedPostFixture(t, gdb)

	payload := map[string]any{
		"title":      "Another Guide",
		"urlSlug":    "go-modules-guide",
		"authorId":   author.ID,
		"categoryId": category.ID,
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/admin/api/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.CreatePost(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
}

func TestCreatePostGeneratesSlugFromTitle(t *testing.T) {
	api, gdb := setupTestAPI(t)
	author, category, _, _ := seedPostFixture(t, gdb)

	payload := map[string]any{
		"title":      "  ASP.NET Core   Diagnostic_Scenarios!!",
		"authorId":   author.ID,
		"categoryId": category.ID,
		"tags":       []string{"Diagnostics"},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/admin/api/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.CreatePost(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created db.Post
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.UrlSlug != "aspnet-core-diagnostic_scenarios" {
		t.Fatalf("unexpected slug: %q", created.UrlSlug)
	}
	if len(created.Tags) != 1 || created.Tags[0].UrlSlug != "diagnostics" {
		t.Fatalf("unexpected tags: %+v", created.Tags)
	}
}

func TestDeletePostDraftConflict(t *testing.T) {
	api, gdb := setupTestAPI(t)
	_, _, _, draft := seedPostFixture(t, gdb)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/admin/api/posts/"+strconv.Itoa(int(draft.ID)), nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(draft.ID))}}

	api.DeletePost(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
}
