package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Player owns exactly four pegs and a private four-slot end zone.
type Player struct {
	ID      PlayerID
	entry   int
	pegs    [PegsPerPlayer]*Peg
	endZone [EndZoneSlots]*Peg
}

// newPlayer creates a player whose pegs start at the given positions.
// Track placement is left to the caller, which owns the board.
func newPlayer(id PlayerID, entry int, start [PegsPerPlayer]Position) *Player {
	p := &Player{ID: id, entry: entry}
	for i, pos := range start {
		peg := &Peg{Owner: id, Index: i, pos: pos}
		p.pegs[i] = peg
		if pos.InEndZone() {
			if p.endZone[pos.Slot()] != nil {
				panic(fmt.Sprintf("engine: %s end zone slot %d assigned twice", id, pos.Slot()))
			}
			p.endZone[pos.Slot()] = peg
		}
	}
	return p
}

// EntryCell is the track cell this player's pegs launch onto.
func (p *Player) EntryCell() int { return p.entry }

// LastTrackCell is the cell just before the entry cell; moving past it leads into the end zone.
func (p *Player) LastTrackCell() int { return (p.entry + TrackLength - 1) % TrackLength }

// Pegs returns the player's pegs in creation order.
func (p *Player) Pegs() []*Peg {
	out := make([]*Peg, len(p.pegs))
	copy(out, p.pegs[:])
	return out
}

// EndZoneSlot returns the peg in slot, or nil.
func (p *Player) EndZoneSlot(slot int) *Peg { return p.endZone[slot] }

// LaunchReady returns the first peg, in creation order, still at home.
func (p *Player) LaunchReady() *Peg {
	for _, peg := range p.pegs {
		if peg.pos.IsHome() {
			return peg
		}
	}
	return nil
}

// AdvanceInEndZone moves the peg in from to the empty slot to.
// It panics if from is empty or to is occupied.
func (p *Player) AdvanceInEndZone(from, to int) {
	peg := p.endZone[from]
	if peg == nil {
		panic(fmt.Sprintf("engine: %s end zone slot %d is empty", p.ID, from))
	}
	if p.endZone[to] != nil {
		panic(fmt.Sprintf("engine: %s end zone slot %d is occupied", p.ID, to))
	}
	p.endZone[from] = nil
	p.endZone[to] = peg
	peg.pos = EndZone(to)
}

// PegArrives takes a peg coming off the track into slot. It panics if the slot is occupied.
func (p *Player) PegArrives(slot int, peg *Peg) {
	if p.endZone[slot] != nil {
		panic(fmt.Sprintf("engine: %s end zone slot %d is occupied", p.ID, slot))
	}
	if peg.Owner != p.ID {
		panic(fmt.Sprintf("engine: %s peg cannot enter the %s end zone", peg.Owner, p.ID))
	}
	p.endZone[slot] = peg
	peg.pos = EndZone(slot)
}

// HasWon reports whether all four pegs are in the end zone.
func (p *Player) HasWon() bool {
	for _, peg := range p.pegs {
		if !peg.pos.InEndZone() {
			return false
		}
	}
	return true
}

// Counts returns how many pegs are at home, on the track and in the end zone.
func (p *Player) Counts() (home, track, end int) {
	for _, peg := range p.pegs {
		switch peg.pos.Zone() {
		case ZoneHome:
			home++
		case ZoneTrack:
			track++
		case ZoneEndZone:
			end++
		}
	}
	return home, track, end
}

// Labels returns the peg labels ordered by progress.
func (p *Player) Labels() []string {
	pegs := p.Pegs()
	sort.SliceStable(pegs, func(i, j int) bool { return pegs[i].Less(pegs[j]) })
	labels := make([]string, len(pegs))
	for i, peg := range pegs {
		labels[i] = peg.Label()
	}
	return labels
}

// String renders the player's pegs as a comma-separated status line, e.g. "SR,SR,38,AR".
func (p *Player) String() string {
	return strings.Join(p.Labels(), ",")
}
