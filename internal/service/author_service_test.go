package service

import (
	"context"
	"testing"

	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/pagination"
)

func TestAuthorListCountsPublishedPostsOnly(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedBlogFixture(t, gdb)
	svc := NewAuthorService(gdb, newTestCache())

	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list authors: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(items))
	}

	counts := map[string]int64{}
	for _, item := range items {
		counts[item.UrlSlug] = item.PostCount
	}
	// alice has 2 posts but one is a draft.
	if counts["alice-nguyen"] != 1 {
		t.Fatalf("expected 1 published post for alice, got %d", counts["alice-nguyen"])
	}
	if counts["bob-tran"] != 2 {
		t.Fatalf("expected 2 published posts for bob, got %d", counts["bob-tran"])
	}
}

func TestBestAuthorsOrdersByPostCount(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedBlogFixture(t, gdb)
	svc := NewAuthorService(gdb, newTestCache())

	items, err := svc.Best(context.Background(), 1)
	if err != nil {
		t.Fatalf("best authors: %v", err)
	}
	if len(items) != 1 || items[0].UrlSlug != "bob-tran" {
		t.Fatalf("expected bob first, got %+v", items)
	}
}

func TestAuthorPagedFiltersByName(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedBlogFixture(t, gdb)
	svc := NewAuthorService(gdb, newTestCache())

	page, err := svc.Paged(context.Background(), "alice", pagination.Params{PageNumber: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("paged authors: %v", err)
	}
	if page.TotalItemCount != 1 || page.Items[0].UrlSlug != "alice-nguyen" {
		t.Fatalf("expected only alice, got %+v", page.Items)
	}
}

func TestAuthorAddOrUpdateDefaultsJoinedDate(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedBlogFixture(t, gdb)
	svc := NewAuthorService(gdb, newTestCache())

	author := db.Author{FullName: "Carol Le", UrlSlug: "carol-le"}
	if err := svc.AddOrUpdate(context.Background(), &author); err != nil {
		t.Fatalf("create author: %v", err)
	}
	if author.JoinedDate.IsZero() {
		t.Fatalf("expected joined date to default on create")
	}
}

func TestAuthorAddOrUpdateRejectsSlugCollision(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedBlogFixture(t, gdb)
	svc := NewAuthorService(gdb, newTestCache())

	duplicate := db.Author{FullName: "Alice Two", UrlSlug: "alice-nguyen"}
	if err := svc.AddOrUpdate(context.Background(), &duplicate); err != ErrAuthorSlugTaken {
		t.Fatalf("expected ErrAuthorSlugTaken, got %v", err)
	}
}

func TestAuthorUpdateInvalidatesBothCacheKeys(t *testing.T) {
	gdb := setupServiceTestDB(t)
	f := seedBlogFixture(t, gdb)
	svc := NewAuthorService(gdb, newTestCache())

	if _, err := svc.GetCached(context.Background(), f.alice.ID); err != nil {
		t.Fatalf("prime id cache: %v", err)
	}
	if _, err := svc.GetCachedBySlug(context.Background(), "alice-nguyen"); err != nil {
		t.Fatalf("prime slug cache: %v", err)
	}

	author, err := svc.Get(context.Background(), f.alice.ID)
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	author.Notes = "Staff writer"
	if err := svc.AddOrUpdate(context.Background(), author); err != nil {
		t.Fatalf("update author: %v", err)
	}

	byID, err := svc.GetCached(context.Background(), f.alice.ID)
	if err != nil {
		t.Fatalf("get cached: %v", err)
	}
	if byID.Notes != "Staff writer" {
		t.Fatalf("id-keyed entry not invalidated: %q", byID.Notes)
	}

	bySlug, err := svc.GetCachedBySlug(context.Background(), "alice-nguyen")
	if err != nil {
		t.Fatalf("get cached by slug: %v", err)
	}
	if bySlug.Notes != "Staff writer" {
		t.Fatalf("slug-keyed entry not invalidated: %q", bySlug.Notes)
	}
}

func TestAuthorCreateClearsCachedSlugMiss(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedBlogFixture(t, gdb)
	svc := NewAuthorService(gdb, newTestCache())

	if _, err := svc.GetCachedBySlug(context.Background(), "carol-le"); err != ErrAuthorNotFound {
		t.Fatalf("expected ErrAuthorNotFound before create, got %v", err)
	}

	author := db.Author{FullName: "Carol Le", UrlSlug: "carol-le"}
	if err := svc.AddOrUpdate(context.Background(), &author); err != nil {
		t.Fatalf("create author: %v", err)
	}

	if _, err := svc.GetCachedBySlug(context.Background(), "carol-le"); err != nil {
		t.Fatalf("cached miss must be cleared by the create, got %v", err)
	}
}

func TestAuthorSetImageUrl(t *testing.T) {
	gdb := setupServiceTestDB(t)
	f := seedBlogFixture(t, gdb)
	svc := NewAuthorService(gdb, newTestCache())

	if _, err := svc.GetCached(context.Background(), f.alice.ID); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	if err := svc.SetImageUrl(context.Background(), f.alice.ID, "media/alice.png"); err != nil {
		t.Fatalf("set image: %v", err)
	}

	author, err := svc.GetCached(context.Background(), f.alice.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if author.ImageUrl != "media/alice.png" {
		t.Fatalf("unexpected image url: %q", author.ImageUrl)
	}

	if err := svc.SetImageUrl(context.Background(), 99999, "x"); err != ErrAuthorNotFound {
		t.Fatalf("expected ErrAuthorNotFound, got %v", err)
	}
}

func TestAuthorDeleteNotFound(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedBlogFixture(t, gdb)
	svc := NewAuthorService(gdb, newTestCache())

	if err := svc.Delete(context.Background(), 13579); err != ErrAuthorNotFound {
		t.Fatalf("expected ErrAuthorNotFound, got %v", err)
	}
}
