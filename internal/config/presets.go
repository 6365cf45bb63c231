package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Preset is a battery file found in a preset directory.
type Preset struct {
	// ID is the file name without extension, usable as battery_file.
	ID      string
	File    string
	Battery BatteryConfig
}

// ListPresets reads every *.yaml battery file in dir, sorted by ID.
// Unreadable files are returned in skipped rather than failing the listing.
func ListPresets(dir string) (presets []Preset, skipped map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	skipped = map[string]error{}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		b, err := LoadBatteryFile(path)
		if err != nil {
			skipped[path] = err
			continue
		}
		id := strings.TrimSuffix(e.Name(), ext)
		if b.Name == "" {
			b.Name = id
		}
		presets = append(presets, Preset{ID: id, File: path, Battery: b})
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].ID < presets[j].ID })
	return presets, skipped, nil
}
