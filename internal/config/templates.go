package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Wall Street RPG Configuration

[game]
# Starting capital for a season
aum = 10000.0
# Required excess return over the benchmark for an alpha victory, in
# percentage points
alpha_target = 5.0
# Playback speed multiplier: 1 to 5 days per second
speed = 1
# Chart mode: "single" or "aggregate"
mode = "aggregate"
# Selectable historical year range
min_year = 1925
max_year = 2025

[data]
# Upstream market data endpoint. Leave empty to use the built-in generator.
endpoint = ""
api_key = ""
timeout = "10s"

[server]
addr = ":8090"
read_timeout = "10s"
write_timeout = "30s"

[journal]
# Append-only record of settled seasons and trades
enabled = true
# path defaults to <config dir>/journal.db

[ui]
color_enabled = true
`

// createTemplateConfig writes a starter config.toml so a first run leaves
// something editable behind.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}
