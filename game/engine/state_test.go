package engine

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestGetState(t *testing.T) {
	e := mustEngine(t, "SR,SR,38,AR;0,8,22,33;SG,18,23,DG;SY,28,CY,DY")
	mustRoll(t, e, 3)

	state := e.GetState()
	if state.Turn != "red" || state.Phase != PhaseMovesOffered || state.LastRoll != 3 {
		t.Errorf("Unexpected turn state %+v", state)
	}
	if !reflect.DeepEqual(state.PendingMoves, []string{"38-BR", "AR-DR"}) {
		t.Errorf("Expected pending [38-BR AR-DR], got %v", state.PendingMoves)
	}
	if len(state.Players) != NumPlayers {
		t.Fatalf("Expected %d players, got %d", NumPlayers, len(state.Players))
	}
	red := state.Players[0]
	if red.Name != "red" || red.Letter != "R" || red.Home != 2 || red.OnTrack != 1 || red.InEndZone != 1 {
		t.Errorf("Unexpected red state %+v", red)
	}
	if len(state.Track) != 8 || state.Track[0].Cell != 0 || state.Track[0].Player != "blue" {
		t.Errorf("Unexpected track %+v", state.Track)
	}
	if state.Layout != state.StartLayout {
		t.Error("Expected layout to match the start before any move")
	}
}

func TestSnapshotRestore_PendingOffer(t *testing.T) {
	e := mustEngine(t, "12,AR,BR,CR;14,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY")
	mustRoll(t, e, 6)
	mustApply(t, e, "12-18")
	mustRoll(t, e, 2)

	data, err := json.Marshal(e.Snapshot())
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Failed to unmarshal snapshot: %v", err)
	}

	restored, err := RestoreEngine(nil, &snap)
	if err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}
	if restored.Status() != e.Status() {
		t.Errorf("Expected status %q, got %q", e.Status(), restored.Status())
	}
	if !reflect.DeepEqual(Keys(restored.PendingMoves()), Keys(e.PendingMoves())) {
		t.Errorf("Expected pending %v, got %v", Keys(e.PendingMoves()), Keys(restored.PendingMoves()))
	}
	if len(restored.GetMoveHistory()) != 1 {
		t.Errorf("Expected 1 history entry, got %d", len(restored.GetMoveHistory()))
	}

	out := mustApply(t, restored, "18")
	if out.Target() != "20" || out.Next != Blue {
		t.Errorf("Unexpected outcome after restore: %q", out.Response())
	}
	if restored.StartLayout().String() != "12,AR,BR,CR;14,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY" {
		t.Errorf("Expected the start layout to survive, got %s", restored.StartLayout())
	}
}

func TestSnapshotRestore_FinishedGame(t *testing.T) {
	e := mustEngine(t, "39,AR,BR,CR;SB,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY")
	mustRoll(t, e, 4)
	mustApply(t, e, "39-DR")

	restored, err := RestoreEngine(nil, e.Snapshot())
	if err != nil {
		t.Fatalf("Failed to restore a finished game: %v", err)
	}
	if winner, ok := restored.Winner(); !ok || winner != Red {
		t.Errorf("Expected red to have won, got %s (%v)", winner, ok)
	}
	if restored.Phase() != PhaseGameOver {
		t.Errorf("Expected phase %s, got %s", PhaseGameOver, restored.Phase())
	}
}

func TestRestore_RejectsCorruptSnapshot(t *testing.T) {
	e := NewEngineWithDefaults()

	tests := []struct {
		name string
		snap *Snapshot
	}{
		{"nil", nil},
		{"bad layout", &Snapshot{Layout: "12,12,SR,SR;SB,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY"}},
		{"bad turn", &Snapshot{Turn: PlayerID(9)}},
		{"pending without roll", &Snapshot{Pending: true}},
	}
	for _, tt := range tests {
		if err := e.Restore(tt.snap); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
	if e.Status() != NewEngineWithDefaults().Status() {
		t.Error("Expected failed restores to leave the engine untouched")
	}
}
