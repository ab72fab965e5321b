// Command validate checks the game preset JSON files in a directory (configs by default).
// For each file it checks:
//   - JSON structure and required fields
//   - the start layout: four players of four pegs, no shared cells or slots, no finished player
//   - the victory message template
//
// It prints a short report per file and exits non-zero if any preset is invalid.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/pegrace/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}

	layout, _ := engine.ParseLayout(config.Layout)
	stem := strings.TrimSuffix(result.File, filepath.Ext(result.File))

	result.info("Name: %s", config.Name)
	if config.Name != stem {
		result.info("Preset ID: %s (differs from name)", stem)
	}
	if layout.IsDefault() {
		result.info("Layout: all pegs at home")
	} else {
		result.info("Layout: %s", layout.String())
	}
	for id := engine.Red; id <= engine.Yellow; id++ {
		home, track, end := zoneCounts(layout[id])
		result.info("%s: home %d, track %d, end zone %d", id, home, track, end)
	}
	if config.Rules.ExtraRollAfterLaunch {
		result.info("Rules: extra roll after launch")
	}
	return result
}

func zoneCounts(pegs [engine.PegsPerPlayer]engine.Position) (home, track, end int) {
	for _, pos := range pegs {
		switch pos.Zone() {
		case engine.ZoneHome:
			home++
		case engine.ZoneTrack:
			track++
		case engine.ZoneEndZone:
			end++
		}
	}
	return home, track, end
}

// report validates every *.json file in dir and writes the results to out. It returns
// false if any file is invalid.
func report(dir string, out io.Writer) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no presets found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(out, "  "+info)
			}
			continue
		}

		fmt.Fprintln(out, "❌ INVALID")
		allValid = false
		for _, msg := range result.Errors {
			fmt.Fprintln(out, "  ❌ "+msg)
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(out, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(out, "❌ Some configurations have errors")
	}
	return allValid, nil
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	ok, err := report(configDir, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}
