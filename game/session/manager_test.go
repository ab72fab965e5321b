package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/pegrace/game/engine"
)

func createTestConfig() *engine.GameConfig {
	config := &engine.GameConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		Layout:      "12,SR,SR,SR;SB,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY",
	}
	config.Messages.Victory = "%s wins!"
	return config
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("Game-1", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "game-1" {
			t.Errorf("Expected lower-cased ID game-1, got %s", session.ID)
		}
		if session.Engine == nil || session.Config != config {
			t.Error("Expected an engine built from the config")
		}
	})

	t.Run("duplicate ID is case-insensitive", func(t *testing.T) {
		if _, err := manager.Create("GAME-1", config); !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("generated ID", func(t *testing.T) {
		session, err := manager.Create("", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != idLength {
			t.Errorf("Expected a %d-character ID, got %q", idLength, session.ID)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		if _, err := manager.Create("../escape", config); !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := createTestConfig()
		bad.Layout = "12,12,SR,SR;SB,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY"
		if _, err := manager.Create("bad", bad); !errors.Is(err, engine.ErrInvalidLayout) {
			t.Errorf("Expected ErrInvalidLayout, got %v", err)
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, _ := manager.Create("lookup", createTestConfig())

	for _, id := range []string{"lookup", "LOOKUP", "LooKup"} {
		session, err := manager.Get(id)
		if err != nil || session != created {
			t.Errorf("Get(%q) = %v, %v", id, session, err)
		}
	}
	if _, err := manager.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	first, err := manager.GetOrCreate("shared", config)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := manager.GetOrCreate("SHARED", config)
	if err != nil || second != first {
		t.Errorf("Expected the same session back, got %v (%v)", second, err)
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	manager.Create("doomed", createTestConfig())

	if err := manager.Delete("DOOMED"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get("doomed"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected the session to be gone")
	}
	if err := manager.Delete("doomed"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	for i := 0; i < 3; i++ {
		manager.Create(fmt.Sprintf("list-%d", i), createTestConfig())
	}
	if len(manager.List()) != 3 || manager.Count() != 3 {
		t.Errorf("Expected 3 sessions, got %d", len(manager.List()))
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	active, _ := manager.Create("active", config)
	expired, _ := manager.Create("expired", config)
	expired.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	active.LastAccessedAt = time.Now()

	if deleted := manager.CleanupExpiredSessions(time.Hour); deleted != 1 {
		t.Errorf("Expected 1 session to be deleted, got %d", deleted)
	}
	if _, err := manager.Get("expired"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected expired session to be deleted")
	}
	if _, err := manager.Get("active"); err != nil {
		t.Error("Expected active session to still exist")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, _ := manager.Create("access-test", createTestConfig())
	session.LastAccessedAt = time.Now().Add(-time.Minute)
	original := session.LastAccessedAt

	if err := manager.UpdateLastAccessed("access-test"); err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}
	if !session.LastAccessedAt.After(original) {
		t.Error("Expected LastAccessedAt to be updated")
	}
	if err := manager.UpdateLastAccessed("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.Create("", config); err != nil {
				errs <- err
			}
			_ = manager.List()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() != 100 {
		t.Errorf("Expected 100 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	session1, _ := manager.Create("iso-1", config)
	session2, _ := manager.Create("iso-2", config)

	if _, err := session1.Engine.Roll(3); err != nil {
		t.Fatal(err)
	}
	if _, err := session1.Engine.Apply("12"); err != nil {
		t.Fatal(err)
	}

	if session2.Engine.Board().Occupant(12) == nil || session2.Engine.Turn() != engine.Red {
		t.Error("Session 2 should not be affected by session 1 moves")
	}
	if session1.Engine.Board().Occupant(15) == nil {
		t.Error("Expected session 1 to have moved")
	}
}
