package engine

import (
	"fmt"
	"sort"
)

// MoveHistoryEntry represents a single applied move in the game history
type MoveHistoryEntry struct {
	ID         string `json:"id"`
	MoveNumber int    `json:"move_number"`
	Player     string `json:"player"`
	Roll       int    `json:"roll"`
	Move       string `json:"move"`
	Kind       string `json:"kind"`
	Captured   string `json:"captured,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// PlayerState is the JSON view of one player.
type PlayerState struct {
	Name          string   `json:"name"`
	Letter        string   `json:"letter"`
	EntryCell     int      `json:"entry_cell"`
	LastTrackCell int      `json:"last_track_cell"`
	Pegs          []string `json:"pegs"`
	Home          int      `json:"home"`
	OnTrack       int      `json:"on_track"`
	InEndZone     int      `json:"in_end_zone"`
	Won           bool     `json:"won"`
}

// TrackCell is one occupied cell of the ring.
type TrackCell struct {
	Cell   int    `json:"cell"`
	Player string `json:"player"`
}

// GameState represents the complete, serializable view of a game
type GameState struct {
	Players      []PlayerState      `json:"players"`
	Track        []TrackCell        `json:"track"`
	Turn         string             `json:"turn"`
	LastRoll     int                `json:"last_roll"`
	Phase        Phase              `json:"phase"`
	PendingMoves []string           `json:"pending_moves"`
	GameOver     bool               `json:"game_over"`
	Winner       string             `json:"winner,omitempty"`
	Layout       string             `json:"layout"`
	StartLayout  string             `json:"start_layout"`
	Rules        Rules              `json:"rules"`
	Message      string             `json:"message"`
	ConfigName   string             `json:"config_name"`
	MoveHistory  []MoveHistoryEntry `json:"move_history"`
	TotalMoves   int                `json:"total_moves"`
}

// GetState builds a fresh view of the game.
func (e *GameEngine) GetState() *GameState {
	state := &GameState{
		Turn:         e.turn.Name(),
		LastRoll:     e.lastRoll,
		Phase:        e.Phase(),
		PendingMoves: Keys(e.pending),
		GameOver:     e.ended,
		Layout:       e.Layout().String(),
		StartLayout:  e.start.String(),
		Rules:        e.rules,
		Message:      e.message,
		MoveHistory:  append([]MoveHistoryEntry{}, e.history...),
		TotalMoves:   len(e.history),
	}
	if e.ended {
		state.Winner = e.winner.Name()
	}
	if e.config != nil {
		state.ConfigName = e.config.Name
	}
	for _, p := range e.players {
		home, track, end := p.Counts()
		state.Players = append(state.Players, PlayerState{
			Name:          p.ID.Name(),
			Letter:        string(p.ID.Letter()),
			EntryCell:     p.entry,
			LastTrackCell: p.LastTrackCell(),
			Pegs:          p.Labels(),
			Home:          home,
			OnTrack:       track,
			InEndZone:     end,
			Won:           p.HasWon(),
		})
	}
	occupied := e.board.Occupied()
	cells := make([]int, 0, len(occupied))
	for cell := range occupied {
		cells = append(cells, cell)
	}
	sort.Ints(cells)
	for _, cell := range cells {
		state.Track = append(state.Track, TrackCell{Cell: cell, Player: occupied[cell].Owner.Name()})
	}
	return state
}

// Snapshot is the compact persisted form of a game. Pending moves are not stored: they
// are recomputed from LastRoll on restore.
type Snapshot struct {
	Layout      string             `json:"layout"`
	StartLayout string             `json:"start_layout"`
	Turn        PlayerID           `json:"turn"`
	LastRoll    int                `json:"last_roll"`
	Pending     bool               `json:"pending"`
	Ended       bool               `json:"ended"`
	Winner      PlayerID           `json:"winner"`
	Rules       Rules              `json:"rules"`
	Message     string             `json:"message,omitempty"`
	History     []MoveHistoryEntry `json:"history,omitempty"`
}

// Snapshot captures the engine state.
func (e *GameEngine) Snapshot() *Snapshot {
	return &Snapshot{
		Layout:      e.Layout().String(),
		StartLayout: e.start.String(),
		Turn:        e.turn,
		LastRoll:    e.lastRoll,
		Pending:     e.pending != nil,
		Ended:       e.ended,
		Winner:      e.winner,
		Rules:       e.rules,
		Message:     e.message,
		History:     append([]MoveHistoryEntry{}, e.history...),
	}
}

// Restore replaces the engine state with snap.
func (e *GameEngine) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	current, err := parseLayout(snap.Layout)
	if err != nil {
		return err
	}
	if err := current.checkOccupancy(); err != nil {
		return err
	}
	start, err := ParseLayout(snap.StartLayout)
	if err != nil {
		return fmt.Errorf("start layout: %w", err)
	}
	if !snap.Turn.Valid() || !snap.Winner.Valid() {
		return fmt.Errorf("snapshot: invalid player")
	}
	if snap.Pending && (snap.LastRoll < MinFace || snap.LastRoll > MaxFace) {
		return fmt.Errorf("%w: %d", ErrInvalidRoll, snap.LastRoll)
	}

	e.start = start
	e.rules = snap.Rules
	e.setup(current)
	e.turn = snap.Turn
	e.lastRoll = snap.LastRoll
	e.ended = snap.Ended
	e.winner = snap.Winner
	e.message = snap.Message
	e.history = append([]MoveHistoryEntry{}, snap.History...)
	if snap.Pending && !snap.Ended {
		e.pending = e.legalMoves(e.turn, e.lastRoll)
		if len(e.pending) == 0 {
			e.pending = nil
		}
	}
	return nil
}

// RestoreEngine builds an engine for config and restores snap into it.
func RestoreEngine(config *GameConfig, snap *Snapshot) (*GameEngine, error) {
	var e *GameEngine
	if config != nil {
		var err error
		if e, err = NewEngine(config); err != nil {
			return nil, err
		}
	} else {
		e = newGameEngine(Layout{}, Rules{})
	}
	if err := e.Restore(snap); err != nil {
		return nil, err
	}
	return e, nil
}
