package engine

import "fmt"

// Board is the shared 40-cell ring. It references pegs, it does not own them.
type Board struct {
	cells [TrackLength]*Peg
}

// Occupant returns the peg on cell, or nil.
func (b *Board) Occupant(cell int) *Peg {
	return b.cells[cell]
}

// Place puts peg on cell. An opponent already there is captured: it goes home and is
// returned. It panics when the cell holds another peg of the same owner.
func (b *Board) Place(cell int, peg *Peg) *Peg {
	victim := b.cells[cell]
	if victim == peg {
		victim = nil
	}
	if victim != nil {
		if victim.Owner == peg.Owner {
			panic(fmt.Sprintf("engine: %s cannot capture its own peg on cell %d", peg.Owner, cell))
		}
		victim.pos = Home()
	}
	b.cells[cell] = peg
	peg.pos = Track(cell)
	return victim
}

// Remove clears cell.
func (b *Board) Remove(cell int) {
	b.cells[cell] = nil
}

// Occupied returns every occupied cell with its peg.
func (b *Board) Occupied() map[int]*Peg {
	out := make(map[int]*Peg)
	for cell, peg := range b.cells {
		if peg != nil {
			out[cell] = peg
		}
	}
	return out
}
