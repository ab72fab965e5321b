package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/pegrace/game/engine"
	"github.com/wricardo/pegrace/game/service"
	"github.com/wricardo/pegrace/logger"
)

// Console messages, printed after "Error, ".
const (
	msgNoGame         = "there is no game in progress!"
	msgGameRunning    = "there already is a game in progress!"
	msgInvalidStart   = "invalid start settings!"
	msgInvalidRoll    = "invalid dice roll!"
	msgMissingRoll    = "the result of the dice roll must be given!"
	msgMissingMove    = "a move must be given!"
	msgGameEnded      = "the game has ended!"
	msgInvalidMove    = "invalid move choice!"
	msgRollFirst      = "must roll the dice first!"
	msgUnknownCommand = "command not recognized!"
)

// OK acknowledges a started game.
const OK = "OK"

// Console runs the line-oriented command loop over one game at a time.
type Console struct {
	eng      *engine.GameEngine
	base     *engine.GameConfig
	presets  service.ConfigManager
	recorder service.Recorder
	log      *zap.SugaredLogger
	done     bool
}

// Option configures a Console.
type Option func(*Console)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Console) { c.log = logger.OrNop(l) }
}

// WithConfig sets the preset a bare "start" plays.
func WithConfig(cfg *engine.GameConfig) Option {
	return func(c *Console) {
		if cfg != nil {
			c.base = cfg
		}
	}
}

// WithPresets lets "start <name>" pick a preset by name.
func WithPresets(presets service.ConfigManager) Option {
	return func(c *Console) { c.presets = presets }
}

func WithRecorder(r service.Recorder) Option {
	return func(c *Console) { c.recorder = r }
}

func New(opts ...Option) *Console {
	c := &Console{
		base: engine.DefaultGameConfig(),
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Done reports whether "quit" was entered.
func (c *Console) Done() bool { return c.done }

// Engine returns the running game, nil when none is started.
func (c *Console) Engine() *engine.GameEngine { return c.eng }

// Execute runs one command line and returns what to print; "" prints nothing.
func (c *Console) Execute(line string) string {
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "start":
		return c.start(arg)
	case "roll":
		if arg == "" {
			return errorLine(msgMissingRoll)
		}
		return c.roll(arg)
	case "move":
		if arg == "" {
			return errorLine(msgMissingMove)
		}
		return c.move(arg)
	case "print":
		if arg != "" {
			break
		}
		if c.eng == nil {
			return errorLine(msgNoGame)
		}
		return c.eng.Status()
	case "abort":
		if arg != "" {
			break
		}
		c.eng = nil
		return ""
	case "quit":
		if arg != "" {
			break
		}
		c.done = true
		return ""
	}
	return errorLine(msgUnknownCommand)
}

// Run reads commands from in until quit, EOF or ctx is cancelled.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for !c.done && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if reply := c.Execute(scanner.Text()); reply != "" {
			if _, err := fmt.Fprintln(out, reply); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

func (c *Console) start(arg string) string {
	if c.eng != nil && !c.eng.IsGameOver() {
		return errorLine(msgGameRunning)
	}

	cfg := c.base
	if arg != "" {
		cfg = c.configFor(arg)
		if cfg == nil {
			return errorLine(msgInvalidStart)
		}
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		c.log.Debugw("start rejected", "layout", arg, "error", err)
		return errorLine(msgInvalidStart)
	}
	c.eng = eng
	c.log.Infow("game started", "config", cfg.Name, "layout", eng.Layout().String())
	return OK
}

// configFor resolves a start argument: a preset name first, then a layout string.
func (c *Console) configFor(arg string) *engine.GameConfig {
	if c.presets != nil && !strings.ContainsAny(arg, ",;") {
		if preset, err := c.presets.LoadConfig(arg); err == nil {
			return preset
		}
	}
	custom := *c.base
	custom.Layout = arg
	return &custom
}

func (c *Console) roll(arg string) string {
	if c.eng == nil {
		return errorLine(msgNoGame)
	}
	face, err := engine.ParseRoll(arg)
	if err != nil {
		return errorLine(msgInvalidRoll)
	}

	began := time.Now()
	res, err := c.eng.Roll(face)
	if err != nil {
		return c.failure(err)
	}
	if c.recorder != nil {
		c.recorder.ObserveRoll(res.Passed, time.Since(began).Seconds())
	}
	c.log.Debugw("roll", "player", res.Player.Name(), "roll", face, "moves", engine.Keys(res.Moves), "passed", res.Passed)
	return res.Response()
}

func (c *Console) move(arg string) string {
	if c.eng == nil {
		return errorLine(msgNoGame)
	}

	out, err := c.eng.Apply(arg)
	if err != nil {
		return c.failure(err)
	}
	if c.recorder != nil {
		c.recorder.ObserveMove(out.Move.Kind.String(), out.Captured != nil)
		if out.Won {
			c.recorder.ObserveWin(out.Next.Name())
		}
	}
	c.log.Debugw("move", "player", out.Move.Player.Name(), "move", out.Move.Key(), "captured", out.Captured != nil, "won", out.Won)
	return out.Response()
}

func (c *Console) failure(err error) string {
	switch {
	case errors.Is(err, engine.ErrGameOver):
		return errorLine(msgGameEnded)
	case errors.Is(err, engine.ErrMustRollFirst):
		return errorLine(msgRollFirst)
	case errors.Is(err, engine.ErrInvalidRoll):
		return errorLine(msgInvalidRoll)
	case errors.Is(err, engine.ErrInvalidMoveKey), errors.Is(err, engine.ErrIllegalMove):
		return errorLine(msgInvalidMove)
	}
	return errorLine(err.Error())
}

func errorLine(msg string) string { return "Error, " + msg }
