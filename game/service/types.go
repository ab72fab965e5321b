package service

import (
	"time"

	"github.com/wricardo/pegrace/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// OfferedMove is one entry of a roll's offer.
type OfferedMove struct {
	Key         string `json:"key"`
	Kind        string `json:"kind"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Description string `json:"description"`
}

// RollResult contains the result of a roll
type RollResult struct {
	Player    string            `json:"player"`
	Roll      int               `json:"roll"`
	Moves     []OfferedMove     `json:"moves"`
	Passed    bool              `json:"passed"`
	Current   string            `json:"current"`
	Response  string            `json:"response"`
	GameState *engine.GameState `json:"game_state"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// MoveResult contains the result of applying a move
type MoveResult struct {
	Move      string            `json:"move"`
	Kind      string            `json:"kind"`
	Target    string            `json:"target"`
	Captured  string            `json:"captured,omitempty"`
	Won       bool              `json:"won"`
	ExtraRoll bool              `json:"extra_roll"`
	Next      string            `json:"next"`
	Response  string            `json:"response"`
	Message   string            `json:"message"`
	GameState *engine.GameState `json:"game_state"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "roll", "pass", "move", "capture", "extra_roll", "victory", "reset"
	Message   string    `json:"message"`
	Player    string    `json:"player,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string       `json:"filename"`
	ConfigID    string       `json:"config_id"` // The identifier to use for session creation
	Name        string       `json:"name"`      // Display name
	Description string       `json:"description"`
	Layout      string       `json:"layout"`
	Rules       engine.Rules `json:"rules"`
}
