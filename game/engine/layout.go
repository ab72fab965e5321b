package engine

import (
	"fmt"
	"strings"
)

// Layout holds the starting position of every peg, indexed by player then peg.
type Layout [NumPlayers][PegsPerPlayer]Position

// DefaultLayout has every peg at home.
func DefaultLayout() Layout { return Layout{} }

// ParseLayout parses a custom start layout such as
//
//	SR,SR,38,AR;0,8,22,33;SG,18,23,DG;SY,28,CY,DY
//
// Groups are separated by ';' in colour order (red, blue, green, yellow), each holding
// four comma-separated peg labels. A label is a track cell 0-39, "S<C>" for home or
// "<A-D><C>" for an end-zone slot of the group's own colour. Two pegs may not share a
// track cell or end-zone slot, and no player may start with all four pegs in the end zone.
// An empty string yields the default layout.
func ParseLayout(s string) (Layout, error) {
	l, err := parseLayout(s)
	if err != nil {
		return Layout{}, err
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// parseLayout checks syntax and colour ownership only.
func parseLayout(s string) (Layout, error) {
	var l Layout
	s = strings.TrimSpace(s)
	if s == "" {
		return l, nil
	}
	groups := strings.Split(s, ";")
	if len(groups) != NumPlayers {
		return l, fmt.Errorf("%w: expected %d groups, got %d", ErrInvalidLayout, NumPlayers, len(groups))
	}
	for id, group := range groups {
		owner := PlayerID(id)
		labels := strings.Split(group, ",")
		if len(labels) != PegsPerPlayer {
			return l, fmt.Errorf("%w: %s needs %d pegs, got %d", ErrInvalidLayout, owner, PegsPerPlayer, len(labels))
		}
		for i, label := range labels {
			pos, err := ParseLabel(label, owner)
			if err != nil {
				return l, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
			}
			l[id][i] = pos
		}
	}
	return l, nil
}

// Validate rejects layouts that put two pegs on one track cell or end-zone slot, or that
// start a player with every peg already in the end zone.
func (l Layout) Validate() error {
	if err := l.checkOccupancy(); err != nil {
		return err
	}
	for id := range l {
		if l.finished(PlayerID(id)) {
			return fmt.Errorf("%w: %s starts with every peg in the end zone", ErrInvalidLayout, PlayerID(id))
		}
	}
	return nil
}

// checkOccupancy is Validate without the already-won check, so finished games can be restored.
func (l Layout) checkOccupancy() error {
	var cells [TrackLength]bool
	for id, pegs := range l {
		var slots [EndZoneSlots]bool
		for _, pos := range pegs {
			switch pos.Zone() {
			case ZoneTrack:
				if cells[pos.Cell()] {
					return fmt.Errorf("%w: cell %d is used twice", ErrInvalidLayout, pos.Cell())
				}
				cells[pos.Cell()] = true
			case ZoneEndZone:
				if slots[pos.Slot()] {
					return fmt.Errorf("%w: %s is used twice", ErrInvalidLayout, pos.Label(PlayerID(id)))
				}
				slots[pos.Slot()] = true
			}
		}
	}
	return nil
}

func (l Layout) finished(id PlayerID) bool {
	for _, pos := range l[id] {
		if !pos.InEndZone() {
			return false
		}
	}
	return true
}

// IsDefault reports whether every peg is at home.
func (l Layout) IsDefault() bool { return l == Layout{} }

// String renders the layout in the format ParseLayout accepts.
func (l Layout) String() string {
	groups := make([]string, NumPlayers)
	for id, pegs := range l {
		labels := make([]string, PegsPerPlayer)
		for i, pos := range pegs {
			labels[i] = pos.Label(PlayerID(id))
		}
		groups[id] = strings.Join(labels, ",")
	}
	return strings.Join(groups, ";")
}
