package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/pegrace/game/config"
	"github.com/wricardo/pegrace/game/engine"
	"github.com/wricardo/pegrace/game/service"
	"github.com/wricardo/pegrace/game/session"
	"github.com/wricardo/pegrace/monitor"
	"github.com/wricardo/pegrace/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateSessionFunc func(ctx context.Context, configName, layout string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	RollFunc  func(ctx context.Context, sessionID string, face int) (*service.RollResult, error)
	MoveFunc  func(ctx context.Context, sessionID, key string) (*service.MoveResult, error)
	ResetFunc func(ctx context.Context, sessionID string) (*engine.GameState, error)

	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func (m *MockGameService) CreateSession(ctx context.Context, configName, layout string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName, layout)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "classic", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Roll(ctx context.Context, sessionID string, face int) (*service.RollResult, error) {
	if m.RollFunc != nil {
		return m.RollFunc(ctx, sessionID, face)
	}
	return &service.RollResult{Roll: face, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID, key string) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, key)
	}
	return &service.MoveResult{Move: key, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}, Page: opts.Page, PageSize: opts.Limit, TotalPages: 1}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, svc service.GameService) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub()
	go hub.Run(ctx)
	return NewServer(svc, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("session x: %w", service.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: 'nope'", service.ErrConfigNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: 7", engine.ErrInvalidRoll), http.StatusBadRequest},
		{fmt.Errorf("%w: \"x\"", engine.ErrInvalidMoveKey), http.StatusBadRequest},
		{fmt.Errorf("config validation: %w", engine.ErrInvalidLayout), http.StatusBadRequest},
		{fmt.Errorf("%w: bad", config.ErrInvalidConfig), http.StatusBadRequest},
		{engine.ErrMustRollFirst, http.StatusConflict},
		{engine.ErrGameOver, http.StatusConflict},
		{fmt.Errorf("%w: 12", engine.ErrIllegalMove), http.StatusConflict},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName, layout string) (*service.SessionInfo, error) {
					if configName != "" || layout != "" {
						t.Errorf("Expected defaults, got %q %q", configName, layout)
					}
					return &service.SessionInfo{ID: "sess-123", ConfigName: "classic"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "sess-123" {
					t.Errorf("Expected session ID sess-123, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with preset and layout",
			requestBody: map[string]string{"config_name": "endgame", "layout": "39,AR,BR,CR;SB,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName, layout string) (*service.SessionInfo, error) {
					if configName != "endgame" || !strings.HasPrefix(layout, "39,") {
						t.Errorf("Unexpected arguments %q %q", configName, layout)
					}
					return &service.SessionInfo{ID: "sess-456", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Unknown preset",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName, layout string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: 'nope'", service.ErrConfigNotFound)
				}
			},
			requestBody:    map[string]string{"config_id": "nope"},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName, layout string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]interface{}
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" || resp["code"].(float64) != 500 {
					t.Errorf("Unexpected error body %v", resp)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := serve(server, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", ConfigName: "classic", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", ConfigName: "classic", CreatedAt: now, LastAccessedAt: now},
				{ID: "end", ConfigName: "endgame", CreatedAt: now.Add(-time.Minute), LastAccessedAt: now.Add(-time.Minute)},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		query string
		ids   []string
		total int
	}{
		{"", []string{"new", "end", "old"}, 3},
		{"?sort=created&order=asc", []string{"old", "end", "new"}, 3},
		{"?limit=1", []string{"new"}, 3},
		{"?config=classic", []string{"new", "old"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve(server, makeRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)
			if resp.Total != tt.total || resp.Count != len(tt.ids) {
				t.Errorf("Expected count %d total %d, got %d %d", len(tt.ids), tt.total, resp.Count, resp.Total)
			}
			for i, id := range tt.ids {
				if i >= len(resp.Sessions) || resp.Sessions[i].ID != id {
					t.Errorf("Expected order %v, got %+v", tt.ids, resp.Sessions)
					break
				}
			}
		})
	}
}

func TestRollAndMoveErrors(t *testing.T) {
	mockService := &MockGameService{
		RollFunc: func(ctx context.Context, sessionID string, face int) (*service.RollResult, error) {
			return nil, fmt.Errorf("%w: %d", engine.ErrInvalidRoll, face)
		},
		MoveFunc: func(ctx context.Context, sessionID, key string) (*service.MoveResult, error) {
			return nil, engine.ErrMustRollFirst
		},
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return nil, fmt.Errorf("session %s: %w", sessionID, service.ErrSessionNotFound)
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"bad roll", makeRequest("POST", "/api/sessions/s1/roll", map[string]int{"roll": 9}), http.StatusBadRequest},
		{"roll body not json", httptest.NewRequest("POST", "/api/sessions/s1/roll", strings.NewReader("six")), http.StatusBadRequest},
		{"move before roll", makeRequest("POST", "/api/sessions/s1/move", map[string]string{"move": "SR-0"}), http.StatusConflict},
		{"unknown session", makeRequest("GET", "/api/sessions/zz/state", nil), http.StatusNotFound},
		{"wrong method", makeRequest("GET", "/api/sessions/s1/roll", nil), http.StatusMethodNotAllowed},
		{"health", makeRequest("GET", "/health", nil), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serve(server, tt.req); w.Code != tt.status {
				t.Errorf("Expected status %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetHistoryOptions(t *testing.T) {
	var got service.HistoryOptions
	mockService := &MockGameService{
		GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}}, nil
		},
	}
	server := setupTestServer(t, mockService)

	serve(server, makeRequest("GET", "/api/sessions/s1/history", nil))
	if got.Page != 1 || got.Limit != 20 || got.Order != "desc" {
		t.Errorf("Unexpected default options %+v", got)
	}

	serve(server, makeRequest("GET", "/api/sessions/s1/history?page=2&limit=5&order=asc", nil))
	if got.Page != 2 || got.Limit != 5 || got.Order != "asc" {
		t.Errorf("Unexpected options %+v", got)
	}
}

func TestCreateConfig(t *testing.T) {
	var savedID string
	var saved *engine.GameConfig
	mockService := &MockGameService{
		SaveConfigFunc: func(ctx context.Context, configName string, cfg *engine.GameConfig) error {
			savedID, saved = configName, cfg
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	body := map[string]interface{}{
		"config_id":   "house",
		"name":        "House rules",
		"description": "Launch bonus",
		"rules":       map[string]bool{"extra_roll_after_launch": true},
	}
	w := serve(server, makeRequest("POST", "/api/configs", body))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	if savedID != "house" || saved.Name != "House rules" || !saved.Rules.ExtraRollAfterLaunch {
		t.Errorf("Unexpected saved config %q %+v", savedID, saved)
	}

	w = serve(server, makeRequest("POST", "/api/configs", map[string]string{"description": "nameless"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a nameless config, got %d", w.Code)
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, service.ErrSessionNotFound
		},
	}
	server := setupTestServer(t, mockService)

	if w := serve(server, makeRequest("GET", "/ws", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without session, got %d", w.Code)
	}
	if w := serve(server, makeRequest("GET", "/ws?session=missing", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}
}

// newRealServer wires the shipped presets, an in-memory session store and metrics.
func newRealServer(t *testing.T) (*Server, *monitor.Monitor) {
	t.Helper()
	configs, err := config.NewManager("../configs")
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	mon := monitor.NewMonitor("pegrace")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub()
	go hub.Run(ctx)

	svc := service.NewGameService(session.NewManager(session.WithGauge(mon)), configs,
		service.WithRecorder(mon), service.WithPublisher(hub))
	return NewServer(svc, hub, WithMetrics(mon.Handler())), mon
}

func TestGameFlow(t *testing.T) {
	server, _ := newRealServer(t)

	w := serve(server, makeRequest("POST", "/api/sessions", map[string]string{
		"config_id": "classic",
		"layout":    "36,AR,BR,CR;39,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d (%s)", w.Code, w.Body.String())
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)
	base := "/api/sessions/" + info.ID

	w = serve(server, makeRequest("POST", base+"/move", map[string]string{"move": "36"}))
	if w.Code != http.StatusConflict {
		t.Errorf("move before roll: expected 409, got %d", w.Code)
	}

	w = serve(server, makeRequest("POST", base+"/roll", map[string]int{"roll": 3}))
	if w.Code != http.StatusOK {
		t.Fatalf("roll: status %d (%s)", w.Code, w.Body.String())
	}
	var roll service.RollResult
	parseResponse(t, w, &roll)
	if len(roll.Moves) != 2 || roll.Moves[0].Key != "36-39" || roll.Response != "36-39\nAR-DR\nred" {
		t.Fatalf("Unexpected roll %+v", roll)
	}

	w = serve(server, makeRequest("POST", base+"/move", map[string]string{"move": "36-39"}))
	if w.Code != http.StatusOK {
		t.Fatalf("move: status %d (%s)", w.Code, w.Body.String())
	}
	var move service.MoveResult
	parseResponse(t, w, &move)
	if move.Captured != "blue" || move.Next != "blue" || move.Response != "39\nblue" {
		t.Errorf("Unexpected move %+v", move)
	}

	w = serve(server, makeRequest("GET", base+"/history?order=asc", nil))
	var history service.HistoryResponse
	parseResponse(t, w, &history)
	if history.TotalMoves != 1 || history.Moves[0].Captured == "" {
		t.Errorf("Unexpected history %+v", history)
	}

	w = serve(server, makeRequest("POST", base+"/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("reset: status %d", w.Code)
	}
	var reset struct {
		State engine.GameState `json:"state"`
	}
	parseResponse(t, w, &reset)
	if reset.State.Layout != "36,AR,BR,CR;39,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY" {
		t.Errorf("Expected reset to the start layout, got %q", reset.State.Layout)
	}

	if w := serve(server, makeRequest("DELETE", base, nil)); w.Code != http.StatusOK {
		t.Errorf("delete: status %d", w.Code)
	}
	if w := serve(server, makeRequest("GET", base, nil)); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", w.Code)
	}

	w = serve(server, makeRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), "pegrace_captures_total 1") {
		t.Errorf("Expected capture metric, got:\n%s", w.Body.String())
	}
}

func TestCreateSessionRejectsBadLayout(t *testing.T) {
	server, _ := newRealServer(t)

	w := serve(server, makeRequest("POST", "/api/sessions", map[string]string{
		"layout": "AR,BR,CR,DR;SB,SB,SB,SB;SG,SG,SG,SG;SY,SY,SY,SY",
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an already-won layout, got %d (%s)", w.Code, w.Body.String())
	}

	w = serve(server, makeRequest("GET", "/api/configs/endgame.json", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected preset lookup to succeed, got %d", w.Code)
	}
}
