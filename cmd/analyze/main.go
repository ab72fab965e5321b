// Command analyze prints, for every preset in the configs directory, the moves each dice
// face would offer the player to act, marking captures and faces that pass the turn.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wricardo/pegrace/game/config"
	"github.com/wricardo/pegrace/game/engine"
)

// FaceAnalysis is what one dice face offers.
type FaceAnalysis struct {
	Face     int
	Moves    []string
	Captures []string
}

// Passes reports whether the face offers nothing.
func (f FaceAnalysis) Passes() bool { return len(f.Moves) == 0 }

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	manager, err := config.NewManager(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	presets, err := manager.ListConfigs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, preset := range presets {
		fmt.Printf("\n=== Analyzing %s ===\n", preset.Filename)
		cfg, err := manager.LoadConfig(preset.ConfigID)
		if err != nil {
			fmt.Printf("Error loading preset: %v\n", err)
			continue
		}
		if err := analyzeConfig(cfg, os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// analyzeFaces previews every face for the player to act.
func analyzeFaces(eng *engine.GameEngine) ([]FaceAnalysis, error) {
	var out []FaceAnalysis
	for face := engine.MinFace; face <= engine.MaxFace; face++ {
		moves, err := eng.LegalMoves(face)
		if err != nil {
			return nil, err
		}
		fa := FaceAnalysis{Face: face, Moves: engine.Keys(moves)}
		for _, m := range moves {
			if !m.To.OnTrack() {
				continue
			}
			if victim := eng.Board().Occupant(m.To.Cell()); victim != nil && victim.Owner != m.Player {
				fa.Captures = append(fa.Captures, fmt.Sprintf("%s captures %s", m.Key(), victim.Owner))
			}
		}
		out = append(out, fa)
	}
	return out, nil
}

func analyzeConfig(cfg *engine.GameConfig, w io.Writer) error {
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Name: %s\n", cfg.Name)
	fmt.Fprintf(w, "Layout: %s\n", eng.Layout().String())
	fmt.Fprintf(w, "To act: %s\n", eng.Turn())

	faces, err := analyzeFaces(eng)
	if err != nil {
		return err
	}

	passing := 0
	for _, fa := range faces {
		if fa.Passes() {
			passing++
			fmt.Fprintf(w, "  %d: pass\n", fa.Face)
			continue
		}
		fmt.Fprintf(w, "  %d: %s\n", fa.Face, strings.Join(fa.Moves, " "))
		for _, c := range fa.Captures {
			fmt.Fprintf(w, "     ⚔️  %s\n", c)
		}
	}

	if passing > 0 {
		fmt.Fprintf(w, "⚠️  %d of %d faces pass the turn\n", passing, engine.MaxFace)
	} else {
		fmt.Fprintf(w, "✅ Every face offers a move\n")
	}
	return nil
}
