package stores

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ftthdiag/diagchat/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStoreSimple(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetOrCreateChat_CreatesOnce(t *testing.T) {
	store := newTestStore(t)

	chat, err := store.GetOrCreateChat("c1", "userA", "Diagnostico inicial", models.VisibilityPrivate)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if chat.OwnerID != "userA" || chat.Title != "Diagnostico inicial" {
		t.Errorf("Unexpected chat: %+v", chat)
	}

	// Second call with the same owner loads, does not overwrite.
	again, err := store.GetOrCreateChat("c1", "userA", "Otro titulo", models.VisibilityPublic)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if again.Title != "Diagnostico inicial" {
		t.Errorf("Existing chat title was overwritten: %q", again.Title)
	}
}

func TestGetOrCreateChat_ForbiddenForOtherOwner(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetOrCreateChat("c1", "userA", "t", models.VisibilityPrivate); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := store.GetOrCreateChat("c1", "userB", "t", models.VisibilityPrivate)
	if err == nil {
		t.Fatal("Expected forbidden error for other owner")
	}
	var ce *models.ChatError
	if !errors.As(err, &ce) || ce.Code != models.ErrForbidden {
		t.Errorf("Expected forbidden code, got %v", err)
	}
}

func TestAppendMessagesAndHistoryOrder(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetOrCreateChat("c1", "userA", "t", models.VisibilityPrivate); err != nil {
		t.Fatalf("Create chat failed: %v", err)
	}

	base := time.Now().Add(-time.Minute)
	msgs := []models.Message{
		{ID: uuid.NewString(), ChatID: "c1", Role: models.RoleUser, Parts: []models.Part{models.NewTextPart("hola")}, CreatedAt: base},
		{ID: uuid.NewString(), ChatID: "c1", Role: models.RoleAssistant, Parts: []models.Part{models.NewTextPart("buenas")}, CreatedAt: base.Add(time.Second)},
	}
	if err := store.AppendMessages(msgs); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	history, err := store.History("c1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(history))
	}
	if history[0].Role != models.RoleUser || history[1].Role != models.RoleAssistant {
		t.Errorf("History out of order: %s then %s", history[0].Role, history[1].Role)
	}
	if history[0].TextContent() != "hola" {
		t.Errorf("Parts did not round-trip: %q", history[0].TextContent())
	}
}

func TestCountMessagesByUser_WindowAndRole(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetOrCreateChat("c1", "userA", "t", models.VisibilityPrivate); err != nil {
		t.Fatalf("Create chat failed: %v", err)
	}

	now := time.Now()
	msgs := []models.Message{
		// Inside the window.
		{ID: uuid.NewString(), ChatID: "c1", Role: models.RoleUser, Parts: []models.Part{models.NewTextPart("a")}, CreatedAt: now.Add(-time.Hour)},
		// Assistant messages never count toward the quota.
		{ID: uuid.NewString(), ChatID: "c1", Role: models.RoleAssistant, Parts: []models.Part{models.NewTextPart("b")}, CreatedAt: now.Add(-time.Hour)},
		// Outside the window.
		{ID: uuid.NewString(), ChatID: "c1", Role: models.RoleUser, Parts: []models.Part{models.NewTextPart("c")}, CreatedAt: now.Add(-25 * time.Hour)},
	}
	if err := store.AppendMessages(msgs); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	count, err := store.CountMessagesByUser("userA", 24*time.Hour)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 counted message, got %d", count)
	}

	count, err = store.CountMessagesByUser("userB", 24*time.Hour)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 for other user, got %d", count)
	}
}

func TestStreamIDs_LatestWins(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetOrCreateChat("c1", "userA", "t", models.VisibilityPrivate); err != nil {
		t.Fatalf("Create chat failed: %v", err)
	}

	latest, err := store.LatestStreamID("c1")
	if err != nil {
		t.Fatalf("LatestStreamID failed: %v", err)
	}
	if latest != "" {
		t.Errorf("Expected no stream id yet, got %q", latest)
	}

	if err := store.RecordStreamID("s1", "c1"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	// Creation times come from the clock; force ordering.
	time.Sleep(5 * time.Millisecond)
	if err := store.RecordStreamID("s2", "c1"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	latest, err = store.LatestStreamID("c1")
	if err != nil {
		t.Fatalf("LatestStreamID failed: %v", err)
	}
	if latest != "s2" {
		t.Errorf("Expected latest stream s2, got %q", latest)
	}
}
