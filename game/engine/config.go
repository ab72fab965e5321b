package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Rules toggles optional house rules.
type Rules struct {
	// ExtraRollAfterLaunch lets a player who launched on a 6 roll again, as any other 6 does.
	ExtraRollAfterLaunch bool `json:"extra_roll_after_launch"`
}

// GameConfig is a named starting setup loaded from JSON.
type GameConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Layout is a custom start layout; empty means every peg starts at home.
	Layout   string `json:"layout"`
	Rules    Rules  `json:"rules"`
	Messages struct {
		Welcome string `json:"welcome"`
		Victory string `json:"victory"`
	} `json:"messages"`
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if _, err := ParseLayout(config.Layout); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if config.Messages.Victory != "" && !validVictoryTemplate(config.Messages.Victory) {
		return fmt.Errorf("config validation: messages.victory must contain exactly one verb, %%s for the winner")
	}
	return nil
}

// validVictoryTemplate reports whether v formats with the winner's name alone.
// Escaped percent signs are allowed.
func validVictoryTemplate(v string) bool {
	rest := strings.ReplaceAll(v, "%%", "")
	return strings.Count(rest, "%") == 1 && strings.Contains(rest, "%s")
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultGameConfig is the built-in setup: every peg at home, classic rules.
func DefaultGameConfig() *GameConfig {
	config := &GameConfig{
		Name:        "classic",
		Description: "Every peg starts at home",
	}
	config.Messages.Welcome = "Roll a 6 to launch your first peg."
	config.Messages.Victory = "%s wins the race!"
	return config
}
