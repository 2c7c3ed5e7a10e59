package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

// testDB creates a temporary test database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "oblog-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testPostParams(title, slug string) CreatePostParams {
	now := time.Now()
	return CreatePostParams{
		Title:     title,
		Subtitle:  "A subtitle",
		Slug:      slug,
		Date:      "August 29, 2026",
		Body:      "<p>Hello</p>",
		Format:    model.PostFormatHTML,
		Author:    "Test Author",
		ImgURL:    "https://example.com/img.jpg",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetPost(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	post, err := q.CreatePost(ctx, testPostParams("First Post", "first-post"))
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("CreatePost returned zero ID")
	}
	if post.Date != "August 29, 2026" {
		t.Errorf("Date = %q, want %q", post.Date, "August 29, 2026")
	}

	got, err := q.GetPostByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if got.Title != "First Post" || got.Slug != "first-post" {
		t.Errorf("got %+v, want title/slug to round-trip", got)
	}

	bySlug, err := q.GetPostBySlug(ctx, "first-post")
	if err != nil {
		t.Fatalf("GetPostBySlug: %v", err)
	}
	if bySlug.ID != post.ID {
		t.Errorf("GetPostBySlug returned ID %d, want %d", bySlug.ID, post.ID)
	}
}

func TestGetPostByID_NotFound(t *testing.T) {
	db := testDB(t)
	q := New(db)

	_, err := q.GetPostByID(context.Background(), 9999)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreatePost_DuplicateTitle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	if _, err := q.CreatePost(ctx, testPostParams("Same Title", "same-title")); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	_, err := q.CreatePost(ctx, testPostParams("Same Title", "same-title-2"))
	if err == nil {
		t.Fatal("expected UNIQUE violation for duplicate title")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
}

func TestListPosts_InsertionOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	titles := []string{"Alpha", "Charlie", "Bravo"}
	slugs := []string{"alpha", "charlie", "bravo"}
	for i := range titles {
		if _, err := q.CreatePost(ctx, testPostParams(titles[i], slugs[i])); err != nil {
			t.Fatalf("CreatePost(%s): %v", titles[i], err)
		}
	}

	posts, err := q.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("ListPosts returned %d posts, want 3", len(posts))
	}
	for i := range titles {
		if posts[i].Title != titles[i] {
			t.Errorf("posts[%d].Title = %q, want %q (insertion order)", i, posts[i].Title, titles[i])
		}
	}
}

func TestUpdatePost_PreservesIDAndDate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	post, err := q.CreatePost(ctx, testPostParams("Original", "original"))
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	updated, err := q.UpdatePost(ctx, UpdatePostParams{
		Title:     "Renamed",
		Subtitle:  "New subtitle",
		Slug:      "renamed",
		Body:      "<p>Edited</p>",
		Format:    model.PostFormatHTML,
		Author:    "Another Author",
		ImgURL:    "https://example.com/other.jpg",
		UpdatedAt: time.Now(),
		ID:        post.ID,
	})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}

	if updated.ID != post.ID {
		t.Errorf("ID changed: %d -> %d", post.ID, updated.ID)
	}
	if updated.Date != post.Date {
		t.Errorf("Date changed: %q -> %q", post.Date, updated.Date)
	}
	if updated.Title != "Renamed" || updated.Body != "<p>Edited</p>" {
		t.Errorf("fields not updated: %+v", updated)
	}
}

func TestDeletePost(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	post, err := q.CreatePost(ctx, testPostParams("Doomed", "doomed"))
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if err := q.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}

	_, err = q.GetPostByID(ctx, post.ID)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now()
	params := CreateUserParams{
		Email:        "a@x.com",
		PasswordHash: "hash",
		Name:         "A",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := q.CreateUser(ctx, params); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err := q.CreateUser(ctx, params)
	if err == nil {
		t.Fatal("expected UNIQUE violation for duplicate email")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}

	n, err := q.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 1 {
		t.Errorf("CountUsers = %d, want 1 (duplicate must not create a row)", n)
	}
}

func TestGetUserByEmail(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now()
	created, err := q.CreateUser(ctx, CreateUserParams{
		Email:        "user@example.com",
		PasswordHash: "hash",
		Name:         "User",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := q.GetUserByEmail(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetUserByEmail ID = %d, want %d", got.ID, created.ID)
	}

	_, err = q.GetUserByEmail(ctx, "missing@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateUserLastLogin(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now()
	user, err := q.CreateUser(ctx, CreateUserParams{
		Email:        "login@example.com",
		PasswordHash: "hash",
		Name:         "Login",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.LastLoginAt.Valid {
		t.Error("new user should not have a last login time")
	}

	err = q.UpdateUserLastLogin(ctx, UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: now, Valid: true},
		ID:          user.ID,
	})
	if err != nil {
		t.Fatalf("UpdateUserLastLogin: %v", err)
	}

	got, err := q.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !got.LastLoginAt.Valid {
		t.Error("last login time not recorded")
	}
}

func TestSeed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Seed(ctx, db, false); err != nil {
		t.Fatalf("Seed(disabled): %v", err)
	}
	q := New(db)
	if n, _ := q.CountUsers(ctx); n != 0 {
		t.Fatalf("disabled seed created %d users", n)
	}

	if err := Seed(ctx, db, true); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if _, err := q.GetUserByEmail(ctx, DefaultAdminEmail); err != nil {
		t.Fatalf("admin user not seeded: %v", err)
	}

	// Seeding twice must be a no-op.
	if err := Seed(ctx, db, true); err != nil {
		t.Fatalf("Seed(again): %v", err)
	}
	if n, _ := q.CountUsers(ctx); n != 1 {
		t.Errorf("repeat seed created extra users: %d", n)
	}
}

func TestCreateEvent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	e, err := q.CreateEvent(ctx, CreateEventParams{
		Level:     model.EventLevelWarning,
		Category:  model.EventCategoryAuth,
		Message:   "Login failed: invalid password",
		Metadata:  `{"email":"a@x.com"}`,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if e.ID == 0 {
		t.Fatal("CreateEvent returned zero ID")
	}

	events, err := q.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 || events[0].Message != "Login failed: invalid password" {
		t.Errorf("unexpected events: %+v", events)
	}
}
