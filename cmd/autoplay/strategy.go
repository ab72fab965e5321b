package main

import (
	"fmt"
	"strconv"

	"github.com/wricardo/pegrace/game/engine"
	"github.com/wricardo/pegrace/game/service"
)

// Strategy picks one of the offered moves.
type Strategy interface {
	Name() string
	Choose(state *engine.GameState, moves []service.OfferedMove) string
}

// NewStrategy resolves a strategy by name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "first":
		return FirstStrategy{}, nil
	case "greedy", "":
		return GreedyStrategy{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q (use first or greedy)", name)
}

// FirstStrategy always takes the first offered move.
type FirstStrategy struct{}

func (FirstStrategy) Name() string { return "first" }

func (FirstStrategy) Choose(_ *engine.GameState, moves []service.OfferedMove) string {
	if len(moves) == 0 {
		return ""
	}
	return moves[0].Key
}

// GreedyStrategy prefers captures, then reaching the end zone, then the most advanced
// track peg. Ties go to the earlier offer.
type GreedyStrategy struct{}

func (GreedyStrategy) Name() string { return "greedy" }

func (g GreedyStrategy) Choose(state *engine.GameState, moves []service.OfferedMove) string {
	best, bestScore := "", -1
	for _, m := range moves {
		if s := g.score(state, m); s > bestScore {
			best, bestScore = m.Key, s
		}
	}
	return best
}

const (
	scoreCapture   = 1000
	scoreEnterZone = 500
	scoreEndZone   = 100
)

func (GreedyStrategy) score(state *engine.GameState, m service.OfferedMove) int {
	score := 0
	if target, err := strconv.Atoi(m.Target); err == nil && state != nil {
		for _, cell := range state.Track {
			if cell.Cell == target && cell.Player != state.Turn {
				score += scoreCapture
			}
		}
	}

	switch m.Kind {
	case engine.MoveEnterEndZone.String():
		score += scoreEnterZone
	case engine.MoveEndZone.String():
		score += scoreEndZone
	case engine.MoveTrack.String():
		score += distanceTravelled(state, m.Source)
	}
	return score
}

// distanceTravelled is how far the peg on cell source has come from its entry cell.
func distanceTravelled(state *engine.GameState, source string) int {
	cell, err := strconv.Atoi(source)
	if err != nil || state == nil {
		return 0
	}
	for _, p := range state.Players {
		if p.Name == state.Turn {
			return (cell - p.EntryCell + engine.TrackLength) % engine.TrackLength
		}
	}
	return 0
}
