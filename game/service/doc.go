// Package service provides the business logic layer for the peg race game.
//
// The service package implements:
//   - Multi-session game management
//   - Preset loading and custom start layouts
//   - Roll and move processing with serialized access
//   - Move history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages preset loading and validation.
// Recorder receives roll, move and win observations for metrics.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP, console) and
// the game engine. Each session owns its own engine; the service holds one lock
// around every roll and apply so a roll's offer is never interleaved with another
// caller's move.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, service.WithLogger(log))
//
//	info, err := gameService.CreateSession(ctx, "classic", "")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	roll, err := gameService.Roll(ctx, info.ID, 6)  // roll.Moves == [SR-0]
//	move, err := gameService.Move(ctx, info.ID, "SR")
//
// Session Management:
//
// Sessions are identified by short random IDs and keep independent game state.
// Sessions track creation time, last access time, and move history.
package service
