// Command autoplay plays games against a running server through the REST API. It rolls
// the dice itself from a seeded generator and picks moves with a simple strategy, which
// makes it useful for soak-testing a deployment and for comparing strategies.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/pegrace/logger"
)

// errRollLimit stops a game that does not finish within the roll budget.
var errRollLimit = errors.New("roll limit reached")

// GameReport summarises one finished game.
type GameReport struct {
	SessionID string
	Winner    string
	Rolls     int
	Moves     int
	Captures  int
}

// Player rolls and moves for every seat of one session.
type Player struct {
	client   *Client
	strategy Strategy
	dice     *rand.Rand
	maxRolls int
	log      *zap.SugaredLogger
}

// Play runs the current game of the client's session to the end.
func (p *Player) Play(ctx context.Context) (*GameReport, error) {
	state, err := p.client.GetState(ctx)
	if err != nil {
		return nil, err
	}
	report := &GameReport{SessionID: p.client.SessionID()}

	for !state.GameOver {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if report.Rolls >= p.maxRolls {
			return report, errRollLimit
		}

		face := p.dice.IntN(6) + 1
		roll, err := p.client.Roll(ctx, face)
		if err != nil {
			return report, err
		}
		report.Rolls++
		state = roll.GameState
		if roll.Passed {
			continue
		}

		key := p.strategy.Choose(state, roll.Moves)
		move, err := p.client.Move(ctx, key)
		if err != nil {
			return report, err
		}
		report.Moves++
		if move.Captured != "" {
			report.Captures++
		}
		p.log.Debugw("moved", "player", roll.Player, "roll", face, "move", key, "captured", move.Captured)
		state = move.GameState
	}

	report.Winner = state.Winner
	return report, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "autoplay",
		Usage: "play peg race games through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "config", Usage: "preset to play"},
			&cli.StringFlag{Name: "layout", Usage: "custom start layout"},
			&cli.StringFlag{Name: "continue", Usage: "resume playing an existing session by ID"},
			&cli.StringFlag{Name: "strategy", Value: "greedy", Usage: "first or greedy"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "games to play; the session is reset between games"},
			&cli.IntFlag{Name: "max-rolls", Value: 5000, Usage: "give up on a game after this many rolls"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "dice seed"},
			&cli.BoolFlag{Name: "v", Usage: "log every move"},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.New(cmd.Bool("v"))
	if err != nil {
		return err
	}
	defer log.Sync()

	strategy, err := NewStrategy(cmd.String("strategy"))
	if err != nil {
		return err
	}

	client := NewClient(cmd.String("url"))
	if id := cmd.String("continue"); id != "" {
		if _, err := client.Resume(ctx, id); err != nil {
			return fmt.Errorf("resume session %s: %w", id, err)
		}
		log.Infow("resumed session", "session", id)
	} else {
		if _, err := client.CreateSession(ctx, cmd.String("config"), cmd.String("layout")); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		log.Infow("session created", "session", client.SessionID())
	}

	seed := uint64(cmd.Int("seed"))
	player := &Player{
		client:   client,
		strategy: strategy,
		dice:     rand.New(rand.NewPCG(seed, seed)),
		maxRolls: int(cmd.Int("max-rolls")),
		log:      log,
	}

	wins := map[string]int{}
	games := int(cmd.Int("games"))
	for i := 1; i <= games; i++ {
		if i > 1 {
			if _, err := client.Reset(ctx); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
		}
		report, err := player.Play(ctx)
		if err != nil {
			return fmt.Errorf("game %d: %w", i, err)
		}
		wins[report.Winner]++
		log.Infow("game finished",
			"game", i,
			"winner", report.Winner,
			"rolls", report.Rolls,
			"moves", report.Moves,
			"captures", report.Captures)
	}

	log.Infow("done", "session", client.SessionID(), "strategy", strategy.Name(), "wins", wins)
	return nil
}
