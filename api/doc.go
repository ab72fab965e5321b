// Package api serves the game over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - create a session {"config_id": "classic", "layout": "..."}
//   - GET /api/sessions - list sessions (?sort=created|accessed&order=asc|desc&limit=N&config=ID)
//   - GET /api/sessions/{id} - session info with its game state
//   - DELETE /api/sessions/{id} - delete a session
//
// Play:
//   - GET /api/sessions/{id}/state - current GameState
//   - POST /api/sessions/{id}/roll - {"roll": 6}, returns the offered moves
//   - POST /api/sessions/{id}/move - {"move": "SR-0"} or just the source {"move": "SR"}
//   - POST /api/sessions/{id}/reset - back to the starting layout
//   - GET /api/sessions/{id}/history - paginated move history (?page&limit&order)
//
// Presets:
//   - GET /api/configs, GET /api/configs/{name}, POST /api/configs
//
// Other:
//   - GET /ws?session=<id> - websocket stream of state updates and events
//   - GET /metrics - Prometheus metrics, when configured
//   - GET /health
//
// Errors are JSON {"error": "...", "code": N}. Unknown sessions and presets are 404,
// malformed rolls, move keys and layouts are 400, moves out of sequence (no roll yet,
// game over, key not offered) are 409.
package api
