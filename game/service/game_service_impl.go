package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/pegrace/game/engine"
	"github.com/wricardo/pegrace/logger"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	recorder  Recorder
	publisher Publisher
	log       *zap.SugaredLogger
	// mu serializes every roll/apply pair across sessions, together with
	// the updates published for it.
	mu sync.RWMutex
}

// Option configures the service.
type Option func(*gameServiceImpl)

// WithLogger sets the logger; the default discards output.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *gameServiceImpl) { s.log = logger.OrNop(l) }
}

// WithRecorder reports rolls, moves and wins to r.
func WithRecorder(r Recorder) Option {
	return func(s *gameServiceImpl) { s.recorder = r }
}

// WithPublisher pushes state updates and events to p while the
// operation that produced them still holds the service lock.
func WithPublisher(p Publisher) Option {
	return func(s *gameServiceImpl) { s.publisher = p }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "classic"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

func (s *gameServiceImpl) reportSessions() {
	if s.recorder != nil {
		s.recorder.SetActiveSessions(len(s.sessions.List()))
	}
}

// CreateSession creates a new game session from a preset, optionally overriding its start layout.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName, layout string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	if layout != "" {
		if _, err := engine.ParseLayout(layout); err != nil {
			return nil, err
		}
		custom := *config
		custom.Layout = layout
		config = &custom
	}

	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.reportSessions()
	s.log.Infow("session created", "session", session.ID, "config", config.Name, "layout", session.Engine.StartLayout().String())

	return s.sessionInfo(session, configName), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	// Write lock: UpdateLastAccessed writes a field that sessionInfo reads.
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(session, ""), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, ""))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.reportSessions()
	s.log.Infow("session deleted", "session", sessionID)
	return nil
}

// Roll feeds a dice value to the session's engine and returns the offered moves.
func (s *gameServiceImpl) Roll(ctx context.Context, sessionID string, face int) (*RollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	start := time.Now()
	res, err := sess.Engine.Roll(face)
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.ObserveRoll(res.Passed, time.Since(start).Seconds())
	}

	now := time.Now()
	result := &RollResult{
		Player:   res.Player.Name(),
		Roll:     res.Face,
		Moves:    make([]OfferedMove, 0, len(res.Moves)),
		Passed:   res.Passed,
		Current:  res.Current.Name(),
		Response: res.Response(),
		Events: []GameEvent{{
			Type:      "roll",
			Message:   fmt.Sprintf("%s rolled %d", res.Player, res.Face),
			Player:    res.Player.Name(),
			Timestamp: now,
		}},
	}
	for _, m := range res.Moves {
		result.Moves = append(result.Moves, OfferedMove{
			Key:         m.Key(),
			Kind:        m.Kind.String(),
			Source:      m.Source(),
			Target:      m.Target(),
			Description: m.Description(),
		})
	}
	if res.Passed {
		result.Events = append(result.Events, GameEvent{
			Type:      "pass",
			Message:   fmt.Sprintf("%s cannot move, %s to roll", res.Player, res.Current),
			Player:    res.Player.Name(),
			Timestamp: now,
		})
	}
	result.GameState = sess.Engine.GetState()

	s.log.Infow("roll", "session", sess.ID, "player", res.Player.Name(), "roll", face,
		"moves", engine.Keys(res.Moves), "passed", res.Passed)
	s.persist(sessionID)
	s.publish(sessionID, result.GameState, EventRoll, result.Events)
	return result, nil
}

// Move applies one of the moves offered by the last roll.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, key string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	out, err := sess.Engine.Apply(key)
	if err != nil {
		return nil, err
	}
	player := out.Move.Player.Name()
	now := time.Now()

	result := &MoveResult{
		Move:      out.Move.Key(),
		Kind:      out.Move.Kind.String(),
		Target:    out.Target(),
		Won:       out.Won,
		ExtraRoll: out.ExtraRoll,
		Next:      out.Next.Name(),
		Response:  out.Response(),
		Events: []GameEvent{{
			Type:      "move",
			Message:   out.Move.Description(),
			Player:    player,
			Timestamp: now,
		}},
	}
	if out.Captured != nil {
		result.Captured = out.Captured.Owner.Name()
		result.Events = append(result.Events, GameEvent{
			Type:      "capture",
			Message:   fmt.Sprintf("%s sent a %s peg home from cell %d", player, out.Captured.Owner, out.Captured.Cell),
			Player:    player,
			Timestamp: now,
		})
	}
	switch {
	case out.Won:
		result.Events = append(result.Events, GameEvent{Type: "victory", Message: player + " winner", Player: player, Timestamp: now})
	case out.ExtraRoll:
		result.Events = append(result.Events, GameEvent{Type: "extra_roll", Message: player + " rolls again", Player: player, Timestamp: now})
	}

	if s.recorder != nil {
		s.recorder.ObserveMove(result.Kind, out.Captured != nil)
		if out.Won {
			s.recorder.ObserveWin(player)
		}
	}

	state := sess.Engine.GetState()
	result.GameState = state
	result.Message = state.Message

	s.log.Infow("move", "session", sess.ID, "player", player, "move", result.Move,
		"captured", result.Captured, "next", result.Next, "won", out.Won)
	s.persist(sessionID)
	s.publish(sessionID, state, EventMove, result.Events)
	return result, nil
}

// Reset resets a game session to its starting layout
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	state := sess.Engine.Reset()
	s.log.Infow("session reset", "session", sess.ID)
	s.persist(sessionID)
	s.publish(sessionID, state, EventReset, nil)
	return state, nil
}

// publish must be called with s.mu held so subscribers see updates in
// the order the engine produced them.
func (s *gameServiceImpl) publish(sessionID string, state *engine.GameState, event string, data interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.BroadcastToSession(sessionID, state)
	s.publisher.BroadcastEvent(sessionID, event, data)
}

func (s *gameServiceImpl) persist(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.log.Warnw("failed to persist session", "session", sessionID, "error", err)
	}
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}
	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
