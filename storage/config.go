package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"

	"gdide/typedef"
)

const configFile = "config.json"

// maxRecentFiles bounds EditorConfig.RecentFiles.
const maxRecentFiles = 10

// EditorConfig holds the user preferences of the editor.
type EditorConfig struct {
	Language               string           `json:"language"`
	ConditionsColumnWidth  int              `json:"conditionsColumnWidth"`
	HistoryLimit           int              `json:"historyLimit"`
	BuildTimeoutSeconds    int              `json:"buildTimeoutSeconds"`
	AllowMultipleInstances bool             `json:"allowMultipleInstances"`
	Keybinds               typedef.Keybinds `json:"keybinds"`
	RecentFiles            []string         `json:"recentFiles,omitempty"`
	FontPath               string           `json:"fontPath,omitempty"` // TrueType/OpenType font, empty for the built-in bitmap font
	FontSize               float64          `json:"fontSize,omitempty"`
}

// DefaultConfig returns the preferences used on first start.
func DefaultConfig() *EditorConfig {
	return &EditorConfig{
		Language:              "en",
		ConditionsColumnWidth: 350,
		HistoryLimit:          100,
		BuildTimeoutSeconds:   10,
		Keybinds:              typedef.DefaultKeybinds(),
		FontSize:              13,
	}
}

// LoadConfig reads the preferences from the data directory. A missing
// file gives the defaults; an unreadable one gives the defaults and an error.
func LoadConfig() (*EditorConfig, error) {
	cfg := DefaultConfig()
	data, err := ReadDataFile(configFile)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", configFile, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("[STORAGE] invalid %s, using defaults: %v", configFile, err)
		return DefaultConfig(), fmt.Errorf("parse %s: %w", configFile, err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize repairs values a hand edited file may get wrong.
func (c *EditorConfig) normalize() {
	def := DefaultConfig()
	if c.ConditionsColumnWidth < 100 {
		c.ConditionsColumnWidth = def.ConditionsColumnWidth
	}
	if c.HistoryLimit < 1 {
		c.HistoryLimit = def.HistoryLimit
	}
	if c.BuildTimeoutSeconds < 1 {
		c.BuildTimeoutSeconds = def.BuildTimeoutSeconds
	}
	if c.Language == "" {
		c.Language = def.Language
	}
	if c.FontSize <= 0 {
		c.FontSize = def.FontSize
	}
	typedef.NormalizeKeybinds(&c.Keybinds)
	if len(c.RecentFiles) > maxRecentFiles {
		c.RecentFiles = c.RecentFiles[:maxRecentFiles]
	}
}

// SaveConfig writes the preferences to the data directory.
func SaveConfig(cfg *EditorConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := WriteDataFile(configFile, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", configFile, err)
	}
	return nil
}

// AddRecentFile moves path to the front of the recent files.
func (c *EditorConfig) AddRecentFile(path string) {
	c.RecentFiles = slices.DeleteFunc(c.RecentFiles, func(p string) bool { return p == path })
	c.RecentFiles = slices.Insert(c.RecentFiles, 0, path)
	if len(c.RecentFiles) > maxRecentFiles {
		c.RecentFiles = c.RecentFiles[:maxRecentFiles]
	}
}
