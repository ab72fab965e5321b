// Package websocket pushes live game updates to browser and tool clients.
//
// A central Hub owns every connection. Clients subscribe to one session by ID when they
// connect (the API serves them at /ws?session=<id>); after each roll, move or reset the
// API publishes the new GameState and a named event, and the hub fans it out to that
// session's clients only. Each message is one JSON frame:
//
//	{"session_id": "a1b2c3d4", "event": "move", "game_state": {...}, "data": {...}}
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(log))
//	go hub.Run(ctx)
//	hub.BroadcastToSession(id, state)
//
// Clients that fall behind by more than the send buffer are dropped. Incoming frames
// are read only to keep the connection alive.
package websocket
