// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// Client is a thin proxy: every tool call becomes a request against the REST API, and
// the JSON reply is rendered as readable text. Tools:
//   - create_session, list_sessions, get_session
//   - game_state, roll, move, reset_game, move_history
//   - list_configs, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// The serve command also mounts the same server at /mcp over HTTP.
package mcp
