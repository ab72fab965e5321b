package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRoll    = errors.New("invalid dice roll")
	ErrInvalidMoveKey = errors.New("invalid move choice")
	ErrInvalidLayout  = errors.New("invalid start layout")
	ErrMustRollFirst  = errors.New("must roll the dice first")
	ErrGameOver       = errors.New("the game has ended")
	ErrIllegalMove    = errors.New("move is not on offer")
)

// Phase is the turn state machine's current state.
type Phase string

const (
	PhaseAwaitingRoll Phase = "awaiting_roll"
	PhaseMovesOffered Phase = "moves_offered"
	PhaseGameOver     Phase = "game_over"
)

// GameEngine owns the four players and the board and runs the roll/apply cycle.
// It is not safe for concurrent use; callers serialize roll/apply pairs.
type GameEngine struct {
	config  *GameConfig
	rules   Rules
	start   Layout
	players [NumPlayers]*Player
	board   Board

	turn     PlayerID
	lastRoll int
	pending  []Move
	ended    bool
	winner   PlayerID
	message  string
	history  []MoveHistoryEntry
}

// RollResult is what a roll offers.
type RollResult struct {
	Player PlayerID // who rolled
	Face   int
	Moves  []Move
	// Passed is set when nothing could move and the turn went to the next player.
	Passed bool
	// Current is the player expected to act next.
	Current PlayerID
}

// Response renders the result the way the console prints it: one key per line, then the
// player to act.
func (r *RollResult) Response() string {
	var b strings.Builder
	for _, m := range r.Moves {
		b.WriteString(m.Key())
		b.WriteByte('\n')
	}
	b.WriteString(r.Current.Name())
	return b.String()
}

// Capture records a peg sent home.
type Capture struct {
	Owner PlayerID
	Cell  int
}

// Outcome is the result of applying a move.
type Outcome struct {
	Move     Move
	Captured *Capture
	Won      bool
	// Next is the player to roll next; the winner when Won is set.
	Next      PlayerID
	ExtraRoll bool
}

// Target is the wire label of where the peg landed.
func (o *Outcome) Target() string { return o.Move.Target() }

// Response renders the outcome the way the console prints it.
func (o *Outcome) Response() string {
	if o.Won {
		return o.Target() + "\n" + o.Next.Name() + " winner"
	}
	return o.Target() + "\n" + o.Next.Name()
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	layout, err := ParseLayout(config.Layout)
	if err != nil {
		return nil, err
	}
	e := newGameEngine(layout, config.Rules)
	e.config = config
	e.message = config.Messages.Welcome
	return e, nil
}

// NewEngineWithDefaults creates an engine with every peg at home.
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultGameConfig())
	if err != nil {
		panic(err)
	}
	return e
}

// NewEngineFromLayout creates an engine from an already parsed layout.
func NewEngineFromLayout(layout Layout, rules Rules) (*GameEngine, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return newGameEngine(layout, rules), nil
}

func newGameEngine(layout Layout, rules Rules) *GameEngine {
	e := &GameEngine{rules: rules, start: layout}
	e.setup(layout)
	return e
}

// setup seats the players and places track pegs. layout must already be validated.
func (e *GameEngine) setup(layout Layout) {
	e.board = Board{}
	for id := range e.players {
		p := newPlayer(PlayerID(id), id*EntrySpacing, layout[id])
		for _, peg := range p.pegs {
			if peg.pos.OnTrack() {
				e.board.Place(peg.pos.Cell(), peg)
			}
		}
		e.players[id] = p
	}
	e.turn = Red
	e.lastRoll = 0
	e.pending = nil
	e.ended = false
	e.winner = 0
}

// Roll offers the legal moves for face to the player whose turn it is. Rolling again
// before applying recomputes and replaces the offer. When nothing can move the turn
// passes to the next player.
func (e *GameEngine) Roll(face int) (*RollResult, error) {
	if e.ended {
		return nil, ErrGameOver
	}
	if face < MinFace || face > MaxFace {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRoll, face)
	}

	roller := e.turn
	moves := e.legalMoves(roller, face)
	result := &RollResult{Player: roller, Face: face, Moves: moves}
	if len(moves) == 0 {
		e.pending = nil
		e.turn = roller.Next()
		result.Passed = true
		e.message = fmt.Sprintf("%s rolled %d and cannot move", roller, face)
	} else {
		e.pending = moves
		e.lastRoll = face
		e.message = fmt.Sprintf("%s rolled %d", roller, face)
	}
	result.Current = e.turn
	return result, nil
}

// ParseRoll checks a textual dice value.
func ParseRoll(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 1 || s[0] < '1' || s[0] > '6' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRoll, s)
	}
	face, _ := strconv.Atoi(s)
	return face, nil
}

// LegalMoves returns the moves face would offer without changing any state.
func (e *GameEngine) LegalMoves(face int) ([]Move, error) {
	if e.ended {
		return nil, ErrGameOver
	}
	if face < MinFace || face > MaxFace {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRoll, face)
	}
	return e.legalMoves(e.turn, face), nil
}

// legalMoves enumerates in precedence order: an available launch on a 6 is the only
// move; otherwise track pegs by ascending cell, then end-zone pegs by ascending slot.
func (e *GameEngine) legalMoves(id PlayerID, face int) []Move {
	p := e.players[id]

	if face == LaunchFace && p.LaunchReady() != nil {
		if occ := e.board.Occupant(p.entry); occ == nil || occ.Owner != id {
			return []Move{{Kind: MoveLaunch, Player: id, From: Home(), To: Track(p.entry)}}
		}
	}

	var moves []Move
	last := p.LastTrackCell()
	for cell := 0; cell < TrackLength; cell++ {
		peg := e.board.Occupant(cell)
		if peg == nil || peg.Owner != id {
			continue
		}
		toLast := (last - cell + TrackLength) % TrackLength
		if face > toLast {
			slot := face - toLast - 1
			if slot < EndZoneSlots && p.endZone[slot] == nil {
				moves = append(moves, Move{Kind: MoveEnterEndZone, Player: id, From: Track(cell), To: EndZone(slot)})
			}
			continue
		}
		target := (cell + face) % TrackLength
		if occ := e.board.Occupant(target); occ != nil && occ.Owner == id {
			continue
		}
		moves = append(moves, Move{Kind: MoveTrack, Player: id, From: Track(cell), To: Track(target)})
	}

	for slot, peg := range p.endZone {
		if peg == nil {
			continue
		}
		to := slot + face
		if to < EndZoneSlots && p.endZone[to] == nil {
			moves = append(moves, Move{Kind: MoveEndZone, Player: id, From: EndZone(slot), To: EndZone(to)})
		}
	}
	return moves
}

// Apply executes one of the moves offered by the last roll. choice is either the full
// key ("37-AR") or just its source ("37").
func (e *GameEngine) Apply(choice string) (*Outcome, error) {
	if e.ended {
		return nil, ErrGameOver
	}
	key, err := ParseMoveKey(choice)
	if err != nil {
		return nil, err
	}
	if e.pending == nil {
		return nil, ErrMustRollFirst
	}
	var move Move
	found := false
	for _, m := range e.pending {
		if key.matches(m) {
			move, found = m, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, key)
	}

	outcome := &Outcome{Move: move}
	player := e.players[move.Player]
	var victim *Peg
	switch move.Kind {
	case MoveLaunch:
		victim = e.board.Place(player.entry, player.LaunchReady())
	case MoveTrack:
		peg := e.board.Occupant(move.From.Cell())
		e.board.Remove(move.From.Cell())
		victim = e.board.Place(move.To.Cell(), peg)
	case MoveEnterEndZone:
		peg := e.board.Occupant(move.From.Cell())
		e.board.Remove(move.From.Cell())
		player.PegArrives(move.To.Slot(), peg)
	case MoveEndZone:
		player.AdvanceInEndZone(move.From.Slot(), move.To.Slot())
	}
	if victim != nil {
		outcome.Captured = &Capture{Owner: victim.Owner, Cell: move.To.Cell()}
	}
	e.pending = nil
	e.record(move, outcome.Captured)

	switch {
	case player.HasWon():
		e.ended = true
		e.winner = player.ID
		outcome.Won = true
		outcome.Next = player.ID
		e.message = e.victoryMessage(player.ID)
	case e.lastRoll == LaunchFace && (move.Kind != MoveLaunch || e.rules.ExtraRollAfterLaunch):
		outcome.ExtraRoll = true
		outcome.Next = e.turn
		e.message = fmt.Sprintf("%s moved %s and rolls again", player.ID, move.Key())
	default:
		e.turn = e.turn.Next()
		outcome.Next = e.turn
		e.message = fmt.Sprintf("%s moved %s", player.ID, move.Key())
	}
	return outcome, nil
}

func (e *GameEngine) victoryMessage(id PlayerID) string {
	if e.config != nil && e.config.Messages.Victory != "" {
		return fmt.Sprintf(e.config.Messages.Victory, id.Name())
	}
	return id.Name() + " winner"
}

func (e *GameEngine) record(move Move, captured *Capture) {
	entry := MoveHistoryEntry{
		ID:         uuid.NewString(),
		MoveNumber: len(e.history) + 1,
		Player:     move.Player.Name(),
		Roll:       e.lastRoll,
		Move:       move.Key(),
		Kind:       move.Kind.String(),
		Timestamp:  time.Now().Unix(),
	}
	if captured != nil {
		entry.Captured = fmt.Sprintf("%s@%d", captured.Owner, captured.Cell)
	}
	e.history = append(e.history, entry)
}

// Reset restores the starting layout and clears the history.
func (e *GameEngine) Reset() *GameState {
	e.setup(e.start)
	e.history = nil
	e.message = ""
	if e.config != nil {
		e.message = e.config.Messages.Welcome
	}
	return e.GetState()
}

// Phase reports the state machine's current state.
func (e *GameEngine) Phase() Phase {
	switch {
	case e.ended:
		return PhaseGameOver
	case e.pending != nil:
		return PhaseMovesOffered
	}
	return PhaseAwaitingRoll
}

// Turn returns the player expected to act.
func (e *GameEngine) Turn() PlayerID { return e.turn }

// LastRoll returns the face of the last roll that offered moves.
func (e *GameEngine) LastRoll() int { return e.lastRoll }

// PendingMoves returns a copy of the offered moves, nil when none are offered.
func (e *GameEngine) PendingMoves() []Move {
	if e.pending == nil {
		return nil
	}
	out := make([]Move, len(e.pending))
	copy(out, e.pending)
	return out
}

// IsGameOver reports whether a player has won.
func (e *GameEngine) IsGameOver() bool { return e.ended }

// Winner returns the winning player once the game is over.
func (e *GameEngine) Winner() (PlayerID, bool) { return e.winner, e.ended }

// Player returns the player seated at id.
func (e *GameEngine) Player(id PlayerID) *Player { return e.players[id] }

// Board returns the shared track.
func (e *GameEngine) Board() *Board { return &e.board }

// GetConfig returns the configuration the engine was built from, nil for bare layouts.
func (e *GameEngine) GetConfig() *GameConfig { return e.config }

// Rules returns the active house rules.
func (e *GameEngine) Rules() Rules { return e.rules }

// GetMoveHistory returns the applied moves, oldest first.
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry { return e.history }

// Layout returns the current peg positions as a layout, pegs in creation order.
func (e *GameEngine) Layout() Layout {
	var l Layout
	for id, p := range e.players {
		for i, peg := range p.pegs {
			l[id][i] = peg.pos
		}
	}
	return l
}

// StartLayout returns the layout the game started from.
func (e *GameEngine) StartLayout() Layout { return e.start }

// Status renders one line per player, pegs ordered by progress, then the player to act.
func (e *GameEngine) Status() string {
	var b strings.Builder
	for _, p := range e.players {
		b.WriteString(p.String())
		b.WriteByte('\n')
	}
	b.WriteString(e.turn.Name())
	return b.String()
}
