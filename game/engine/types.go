package engine

import (
	"fmt"
	"strconv"
)

const (
	NumPlayers    = 4
	PegsPerPlayer = 4
	EndZoneSlots  = 4
	TrackLength   = 40

	// EntrySpacing is the distance between consecutive players' entry cells.
	EntrySpacing = TrackLength / NumPlayers

	MinFace    = 1
	MaxFace    = 6
	LaunchFace = MaxFace
)

// PlayerID identifies a seat at the table, 0 through 3 in turn order.
type PlayerID int

const (
	Red PlayerID = iota
	Blue
	Green
	Yellow
)

var playerNames = [NumPlayers]string{"red", "blue", "green", "yellow"}

// slotLetters label end-zone slots 0..3.
var slotLetters = [EndZoneSlots]byte{'A', 'B', 'C', 'D'}

// Name returns the lower-case colour name, e.g. "red".
func (id PlayerID) Name() string {
	if !id.Valid() {
		return fmt.Sprintf("player(%d)", int(id))
	}
	return playerNames[id]
}

// Letter returns the upper-case colour initial used in move keys.
func (id PlayerID) Letter() byte {
	return playerNames[id][0] - 'a' + 'A'
}

func (id PlayerID) String() string { return id.Name() }

// Valid reports whether id is one of the four seats.
func (id PlayerID) Valid() bool { return id >= Red && id <= Yellow }

// Next returns the player seated after id.
func (id PlayerID) Next() PlayerID { return (id + 1) % NumPlayers }

// PlayerByName resolves a colour name.
func PlayerByName(name string) (PlayerID, bool) {
	for i, n := range playerNames {
		if n == name {
			return PlayerID(i), true
		}
	}
	return 0, false
}

// PlayerByLetter resolves a colour initial (R, B, G, Y).
func PlayerByLetter(c byte) (PlayerID, bool) {
	for i := range playerNames {
		if PlayerID(i).Letter() == c {
			return PlayerID(i), true
		}
	}
	return 0, false
}

// Zone is the part of the game a peg is in.
type Zone uint8

const (
	ZoneHome Zone = iota
	ZoneTrack
	ZoneEndZone
)

func (z Zone) String() string {
	switch z {
	case ZoneHome:
		return "home"
	case ZoneTrack:
		return "track"
	case ZoneEndZone:
		return "end_zone"
	}
	return "unknown"
}

// Position is where a peg stands: at home, on a track cell, or in an end-zone slot.
// The zero value is Home.
type Position struct {
	zone  Zone
	index uint8
}

// Home returns the home position.
func Home() Position { return Position{zone: ZoneHome} }

// Track returns the position of a track cell. It panics if cell is outside [0,39].
func Track(cell int) Position {
	if cell < 0 || cell >= TrackLength {
		panic(fmt.Sprintf("engine: track cell %d out of range", cell))
	}
	return Position{zone: ZoneTrack, index: uint8(cell)}
}

// EndZone returns the position of an end-zone slot. It panics if slot is outside [0,3].
func EndZone(slot int) Position {
	if slot < 0 || slot >= EndZoneSlots {
		panic(fmt.Sprintf("engine: end zone slot %d out of range", slot))
	}
	return Position{zone: ZoneEndZone, index: uint8(slot)}
}

func (p Position) Zone() Zone      { return p.zone }
func (p Position) IsHome() bool    { return p.zone == ZoneHome }
func (p Position) OnTrack() bool   { return p.zone == ZoneTrack }
func (p Position) InEndZone() bool { return p.zone == ZoneEndZone }

// Cell returns the track cell, or -1 when the position is not on the track.
func (p Position) Cell() int {
	if p.zone != ZoneTrack {
		return -1
	}
	return int(p.index)
}

// Slot returns the end-zone slot, or -1 when the position is not in the end zone.
func (p Position) Slot() int {
	if p.zone != ZoneEndZone {
		return -1
	}
	return int(p.index)
}

// Progress orders positions: Home < Track by cell < EndZone by slot.
func (p Position) Progress() int {
	switch p.zone {
	case ZoneTrack:
		return int(p.index)
	case ZoneEndZone:
		return TrackLength + int(p.index)
	}
	return -1
}

// Label renders the position the way the move-key wire format does for owner:
// "S<C>" for home, the cell number on the track, "<A-D><C>" in the end zone.
func (p Position) Label(owner PlayerID) string {
	switch p.zone {
	case ZoneTrack:
		return strconv.Itoa(int(p.index))
	case ZoneEndZone:
		return string([]byte{slotLetters[p.index], owner.Letter()})
	}
	return string([]byte{'S', owner.Letter()})
}

func (p Position) String() string {
	switch p.zone {
	case ZoneTrack:
		return fmt.Sprintf("track(%d)", p.index)
	case ZoneEndZone:
		return fmt.Sprintf("end_zone(%d)", p.index)
	}
	return "home"
}

// ParseLabel parses a position label for owner. Labels for other colours are rejected.
func ParseLabel(label string, owner PlayerID) (Position, error) {
	if n, err := strconv.Atoi(label); err == nil {
		if n < 0 || n >= TrackLength || (len(label) > 1 && label[0] == '0') || label[0] == '+' {
			return Position{}, fmt.Errorf("track cell %q out of range", label)
		}
		return Track(n), nil
	}
	if len(label) != 2 {
		return Position{}, fmt.Errorf("unknown position %q", label)
	}
	if label[1] != owner.Letter() {
		return Position{}, fmt.Errorf("position %q does not belong to %s", label, owner)
	}
	if label[0] == 'S' {
		return Home(), nil
	}
	for slot, c := range slotLetters {
		if label[0] == c {
			return EndZone(slot), nil
		}
	}
	return Position{}, fmt.Errorf("unknown position %q", label)
}

// Peg is a single game piece. Its canonical owner is its Player; the Board only refers to it.
type Peg struct {
	Owner PlayerID
	Index int
	pos   Position
}

// Position returns where the peg currently stands.
func (p *Peg) Position() Position { return p.pos }

// Label renders the peg's position in wire format.
func (p *Peg) Label() string { return p.pos.Label(p.Owner) }

// Less orders pegs by progress, then by creation index.
func (p *Peg) Less(o *Peg) bool {
	if p.pos.Progress() != o.pos.Progress() {
		return p.pos.Progress() < o.pos.Progress()
	}
	return p.Index < o.Index
}
