package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/tinkerer-vote/internal/apperror"
	"github.com/sakif/tinkerer-vote/internal/model"
)

// createTestUser upserts a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, externalID, name string) *model.User {
	t.Helper()
	user := &model.User{
		ExternalID:  externalID,
		DisplayName: name,
		AvatarRef:   "abc123",
	}
	if err := db.Upsert(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUpsert_InsertsNewUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		ExternalID:  "103551461266296832",
		DisplayName: "kitze",
		AvatarRef:   "a_deadbeef",
		IsAdmin:     true,
	}
	if err := db.Upsert(context.Background(), user); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Upsert() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.LastLoginAt.IsZero() {
		t.Error("Upsert() did not set timestamps")
	}

	found, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.ExternalID != "103551461266296832" {
		t.Errorf("ExternalID = %q", found.ExternalID)
	}
	if found.DisplayName != "kitze" || found.AvatarRef != "a_deadbeef" || !found.IsAdmin {
		t.Errorf("stored user = %+v", found)
	}
	if !found.CreatedAt.Equal(user.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", found.CreatedAt, user.CreatedAt)
	}
}

func TestUpsert_UpdatesExistingUser(t *testing.T) {
	db := newTestDB(t)
	first := createTestUser(t, db, "42", "old-name")

	second := &model.User{
		ExternalID:  "42",
		DisplayName: "new-name",
		AvatarRef:   "",
		IsAdmin:     true,
	}
	if err := db.Upsert(context.Background(), second); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Upsert() changed ID from %q to %q", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("Upsert() changed CreatedAt from %v to %v", first.CreatedAt, second.CreatedAt)
	}
	if second.LastLoginAt.Before(first.LastLoginAt) {
		t.Errorf("LastLoginAt went backwards: %v < %v", second.LastLoginAt, first.LastLoginAt)
	}

	found, err := db.GetUserByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.DisplayName != "new-name" || found.AvatarRef != "" || !found.IsAdmin {
		t.Errorf("user not updated: %+v", found)
	}

	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Members != 1 {
		t.Errorf("Members = %d, want 1 (upsert must not duplicate)", stats.Members)
	}
}

func TestUpsert_AdminFlagCanBeRevoked(t *testing.T) {
	db := newTestDB(t)
	u := &model.User{ExternalID: "7", DisplayName: "mod", IsAdmin: true}
	if err := db.Upsert(context.Background(), u); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	u2 := &model.User{ExternalID: "7", DisplayName: "mod", IsAdmin: false}
	if err := db.Upsert(context.Background(), u2); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	found, err := db.GetUserByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.IsAdmin {
		t.Error("IsAdmin = true, want false after re-login without allow-list entry")
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nonexistent-id")
	if err == nil {
		t.Fatal("GetUserByID() should have returned an error for nonexistent ID")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestUsers_DuplicateExternalIDRejectedByStorage(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "99999", "first")

	_, err := db.conn.Exec(
		`INSERT INTO users (id, external_id, display_name, created_at, last_login_at)
		 VALUES ('x', '99999', 'dup', ?, ?)`, now(), now(),
	)
	if err == nil {
		t.Fatal("duplicate external_id insert should fail")
	}
	if !isUniqueViolation(err) {
		t.Errorf("isUniqueViolation(%v) = false, want true", err)
	}
}
