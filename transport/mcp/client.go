package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/pegrace/game/engine"
	"github.com/wricardo/pegrace/game/service"
	"github.com/wricardo/pegrace/logger"
)

const instructions = `Peg Race - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Four players (red, blue, green, yellow) race four pegs each around a 40-cell ring and
into a private four-slot end zone. Dice values are supplied by you: call roll with a
face 1-6, pick one of the offered move keys, then call move.

AVAILABLE TOOLS:
- create_session: Start a game from a preset and/or custom layout
- list_sessions / get_session: Inspect sessions
- game_state: Current board, turn and pending moves
- roll: Offer the legal moves for a dice value
- move: Apply one offered move by key ("12-15") or source ("12")
- reset_game: Back to the starting layout
- move_history: Applied moves, paginated
- list_configs: Available presets
- game_instructions: Full rules`

const rules = `Peg Race - Rules

BOARD:
- A shared ring of 40 cells (0-39). Entry cells: red 0, blue 10, green 20, yellow 30.
- Each player's last ring cell is the one before its entry cell (red 39, blue 9, ...).
- Each player has an end zone of four slots A-D.

TURN:
1. roll <face>: the engine lists the legal moves for the player to act.
2. move <key>: apply one of them. A roll with no legal move passes the turn.

MOVES (in the order they are offered):
- Launch: on a 6, if a peg is at home and the entry cell is not held by your own peg,
  launching is the only move offered ("SR-0"). It captures an opponent on the entry cell.
- Ring: a ring peg advances by the face. Passing your last ring cell moves it into the
  end zone; the count must land exactly on a free slot ("38-BR").
- End zone: a peg inside the end zone advances if it lands on a free slot ("AR-DR").
- Your own pegs block; landing on an opponent sends it home.

EXTRA ROLL:
- A 6 lets the same player roll again, except after a launch (unless the preset enables
  extra_roll_after_launch).

WIN:
- All four pegs in the end zone.

MOVE KEYS:
- "S<C>" home, "0".."39" ring cells, "A<C>".."D<C>" end-zone slots, where <C> is the
  colour initial R, B, G or Y. A key is "<source>-<target>"; the source alone also works.`

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	log        *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = logger.OrNop(l) }
}

// NewClient creates a new MCP client that calls the REST API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Peg Race",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
	)
	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session from a preset, optionally with a custom start layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use (optional, see list_configs)",
				},
				"layout": map[string]interface{}{
					"type":        "string",
					"description": "Custom start layout, four ';'-separated groups of four peg labels, e.g. SR,SR,38,AR;0,8,22,33;SG,18,23,DG;SY,28,CY,DY (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the board, the player to act and any pending moves",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "roll",
		Description: "Report a dice value for the player to act and list the legal moves",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"roll": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"maximum":     6,
					"description": "Dice face",
				},
			},
			Required: []string{"session_id", "roll"},
		},
	}, c.handleRoll)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Apply one of the moves offered by the last roll",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"move": map[string]interface{}{
					"type":        "string",
					"description": "Move key such as \"12-15\", or just its source \"12\"",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why this move was chosen",
				},
			},
			Required: []string{"session_id", "move"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to its starting layout",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the applied moves with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Moves per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game and the move-key format",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs a JSON request against the REST API and decodes the reply into result.
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warnw("api call failed", "method", method, "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	body := map[string]string{}
	if configID, _ := args["config_id"].(string); configID != "" {
		body["config_id"] = configID
	}
	if layout, _ := args["layout"].(string); layout != "" {
		body["layout"] = layout
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil && s.GameState.GameOver {
			status = s.GameState.Winner + " won"
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s, %s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), status)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleRoll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/roll")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// JSON numbers arrive as float64.
	face, ok := args["roll"].(float64)
	if !ok {
		return mcp.NewToolResultError("roll must be a number from 1 to 6"), nil
	}

	var result service.RollResult
	if err := c.apiCall(ctx, "POST", path, map[string]int{"roll": int(face)}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRollResult(&result)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/move")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	move, _ := args["move"].(string)
	if intent, _ := args["intent"].(string); intent != "" {
		c.log.Debugw("move intent", "session", args["session_id"], "move", move, "intent", intent)
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, map[string]string{"move": move}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	if page, ok := args["page"].(float64); ok {
		query.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		query.Set("limit", fmt.Sprint(int(limit)))
	}
	if order, _ := args["order"].(string); order != "" {
		query.Set("order", order)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		layout := cfg.Layout
		if layout == "" {
			layout = "all pegs at home"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Layout: %s\n", cfg.ConfigID, cfg.Name, cfg.Description, layout)
		if cfg.Rules.ExtraRollAfterLaunch {
			b.WriteString("  Extra roll after launch\n")
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(rules), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	for _, p := range state.Players {
		fmt.Fprintf(&b, "%-6s %s (home %d, ring %d, end zone %d)\n",
			p.Name+":", strings.Join(p.Pegs, ","), p.Home, p.OnTrack, p.InEndZone)
	}
	fmt.Fprintf(&b, "\nLayout: %s\nMoves: %d\n", state.Layout, state.TotalMoves)

	if state.GameOver {
		fmt.Fprintf(&b, "\n%s winner", state.Winner)
	} else {
		fmt.Fprintf(&b, "To act: %s", state.Turn)
		if len(state.PendingMoves) > 0 {
			fmt.Fprintf(&b, " (rolled %d, choose one of: %s)", state.LastRoll, strings.Join(state.PendingMoves, ", "))
		} else {
			b.WriteString(" (waiting for a roll)")
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

func formatRollResult(result *service.RollResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s rolled %d\n", result.Player, result.Roll)
	if result.Passed {
		fmt.Fprintf(&b, "No legal move, %s to roll next\n", result.Current)
		return b.String()
	}
	b.WriteString("Offered moves:\n")
	for _, m := range result.Moves {
		fmt.Fprintf(&b, "- %s: %s\n", m.Key, m.Description)
	}
	fmt.Fprintf(&b, "%s to choose", result.Current)
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s (%s) landed on %s\n", result.Move, result.Kind, result.Target)
	if result.Captured != "" {
		fmt.Fprintf(&b, "Captured a %s peg\n", result.Captured)
	}
	switch {
	case result.Won:
		fmt.Fprintf(&b, "🎉 %s winner\n", result.Next)
	case result.ExtraRoll:
		fmt.Fprintf(&b, "Rolled a 6: %s rolls again\n", result.Next)
	default:
		fmt.Fprintf(&b, "Next: %s\n", result.Next)
	}
	if result.GameState != nil {
		b.WriteString("\n" + formatGameState(result.GameState))
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), Total: %d\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, move := range history.Moves {
		fmt.Fprintf(&b, "%d. %s rolled %d: %s", move.MoveNumber, move.Player, move.Roll, move.Move)
		if move.Captured != "" {
			fmt.Fprintf(&b, " (captured %s)", move.Captured)
		}
		b.WriteString("\n")
	}
	return b.String()
}
