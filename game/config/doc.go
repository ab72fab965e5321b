// Package config manages the game presets stored as JSON files.
//
// A preset names a starting setup:
//
//	{
//	  "name": "endgame",
//	  "description": "A late-game position",
//	  "layout": "SR,SR,38,AR;0,8,22,33;SG,18,23,DG;SY,28,CY,DY",
//	  "rules": {"extra_roll_after_launch": false},
//	  "messages": {"welcome": "...", "victory": "%s wins the race!"}
//	}
//
// An empty layout starts every peg at home. Presets are validated with the engine's
// layout parser when loaded and cached afterwards.
//
// Usage:
//
//	manager, err := config.NewManager("configs", config.WithLogger(log))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("endgame")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default preset is "classic"; when it is missing the first valid preset in the
// directory is used, and with an empty directory the engine's built-in setup.
package config
