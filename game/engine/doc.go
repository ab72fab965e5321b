// Package engine provides the core rules of the peg race game.
//
// Four players (red, blue, green, yellow) each own four pegs. Pegs launch from home onto
// the player's entry cell of a shared 40-cell ring, travel once around it and then leave
// the ring into the player's private four-slot end zone. A player wins when all four
// pegs are in the end zone.
//
// Core Types:
//
// Position is a tagged value: Home, Track(cell) or EndZone(slot). Peg, Player and Board
// hold the pieces; GameEngine owns all of them and is the only thing that mutates them.
// GameConfig names a starting Layout and optional Rules; GameState is the JSON view and
// Snapshot the persisted form.
//
// Turn cycle:
//
//	eng := engine.NewEngineWithDefaults()
//	res, err := eng.Roll(6)    // offers "SR-0"
//	if err != nil {
//		log.Fatal(err)
//	}
//	out, err := eng.Apply("SR-0")
//	fmt.Println(res.Response(), out.Response())
//
// Roll enumerates moves in a fixed precedence: a launch on a 6 is offered alone whenever
// a peg is at home and the entry cell is not held by the player's own peg; otherwise
// every track peg may advance (entering the end zone when it passes the player's last
// track cell, with an exact count) and every end-zone peg may advance within the zone.
// A roll with no legal moves passes the turn. Apply executes one offered move, sends a
// captured opponent home, checks for a win and either keeps the turn after a 6 or passes
// it on.
//
// Move keys use the wire form "<source>-<target>": "S<C>" for home, cell numbers on the
// track and "<A-D><C>" for end-zone slots, where <C> is the colour initial.
package engine
