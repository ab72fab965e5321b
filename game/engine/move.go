package engine

import (
	"fmt"
	"strings"
)

// MoveKind distinguishes the four ways a peg can move.
type MoveKind int

const (
	MoveLaunch       MoveKind = iota // home onto the entry cell
	MoveTrack                        // cell to cell on the ring
	MoveEnterEndZone                 // off the ring into the end zone
	MoveEndZone                      // slot to slot inside the end zone
)

func (k MoveKind) String() string {
	switch k {
	case MoveLaunch:
		return "launch"
	case MoveTrack:
		return "track"
	case MoveEnterEndZone:
		return "enter_end_zone"
	case MoveEndZone:
		return "end_zone"
	}
	return "unknown"
}

// Move is one offered move for the player to act.
type Move struct {
	Kind   MoveKind
	Player PlayerID
	From   Position
	To     Position
}

// Source is the wire label of the starting position, e.g. "SR", "37", "AR".
func (m Move) Source() string { return m.From.Label(m.Player) }

// Target is the wire label of the destination.
func (m Move) Target() string { return m.To.Label(m.Player) }

// Key is the move's wire form "<source>-<target>".
func (m Move) Key() string { return m.Source() + "-" + m.Target() }

func (m Move) String() string { return m.Key() }

// Description is a human-readable sentence for the move.
func (m Move) Description() string {
	switch m.Kind {
	case MoveLaunch:
		return fmt.Sprintf("%s launches a peg onto cell %d", m.Player, m.To.Cell())
	case MoveTrack:
		return fmt.Sprintf("%s moves from cell %d to cell %d", m.Player, m.From.Cell(), m.To.Cell())
	case MoveEnterEndZone:
		return fmt.Sprintf("%s moves from cell %d into end zone slot %s", m.Player, m.From.Cell(), m.Target())
	case MoveEndZone:
		return fmt.Sprintf("%s advances from end zone slot %s to %s", m.Player, m.Source(), m.Target())
	}
	return m.Key()
}

// MoveKey is a parsed move choice. Target is empty when only the source was given.
type MoveKey struct {
	Source string
	Target string
}

// ParseMoveKey checks the syntax of a move choice. Both "<source>-<target>" and a bare
// "<source>" are accepted. Sources and targets are cell numbers 0-39, "S<C>" or "<A-D><C>".
func ParseMoveKey(s string) (MoveKey, error) {
	s = strings.TrimSpace(s)
	src, dst, hasTarget := strings.Cut(s, "-")
	if !validToken(src) || (hasTarget && !validToken(dst)) {
		return MoveKey{}, fmt.Errorf("%w: %q", ErrInvalidMoveKey, s)
	}
	return MoveKey{Source: src, Target: dst}, nil
}

func (k MoveKey) String() string {
	if k.Target == "" {
		return k.Source
	}
	return k.Source + "-" + k.Target
}

// matches reports whether m is the move k names.
func (k MoveKey) matches(m Move) bool {
	if k.Source != m.Source() {
		return false
	}
	return k.Target == "" || k.Target == m.Target()
}

func validToken(t string) bool {
	switch len(t) {
	case 1:
		return t[0] >= '0' && t[0] <= '9'
	case 2:
		if t[0] >= '1' && t[0] <= '3' && t[1] >= '0' && t[1] <= '9' {
			return true
		}
		if _, ok := PlayerByLetter(t[1]); !ok {
			return false
		}
		return strings.IndexByte("SABCD", t[0]) >= 0
	}
	return false
}

// Keys returns the wire keys of moves in order.
func Keys(moves []Move) []string {
	keys := make([]string, len(moves))
	for i, m := range moves {
		keys[i] = m.Key()
	}
	return keys
}
