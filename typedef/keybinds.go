package typedef

import (
	"strconv"
	"strings"
)

// Keybinds stores user-configurable keyboard shortcuts of the events editor.
type Keybinds struct {
	InsertEvent      string `json:"insertEvent,omitempty"`
	InsertWhileEvent string `json:"insertWhileEvent,omitempty"`
	AddCondition     string `json:"addCondition,omitempty"`
	AddAction        string `json:"addAction,omitempty"`
	DeleteSelection  string `json:"deleteSelection,omitempty"`
	Copy             string `json:"copy,omitempty"`
	Paste            string `json:"paste,omitempty"`
	Undo             string `json:"undo,omitempty"`
	Redo             string `json:"redo,omitempty"`
	ToggleDisabled   string `json:"toggleDisabled,omitempty"`
	ToggleFolded     string `json:"toggleFolded,omitempty"`
	Build            string `json:"build,omitempty"`
	Save             string `json:"save,omitempty"`
}

// DefaultKeybinds returns the baseline key configuration.
func DefaultKeybinds() Keybinds {
	return Keybinds{
		InsertEvent:      "E",
		InsertWhileEvent: "W",
		AddCondition:     "C",
		AddAction:        "A",
		DeleteSelection:  "DELETE",
		Copy:             "K",
		Paste:            "V",
		Undo:             "Z",
		Redo:             "Y",
		ToggleDisabled:   "D",
		ToggleFolded:     "F",
		Build:            "F5",
		Save:             "S",
	}
}

// CanonicalizeBinding trims, uppercases, and validates supported key names.
// Allowed values: empty string (disabled), single letters A-Z, function keys F1-F12, and common names like SPACE, ESCAPE, ENTER, TAB, BACKSPACE, DELETE, INSERT, HOME, END, PAGEUP, PAGEDOWN, and arrow keys (UP/DOWN/LEFT/RIGHT).
// Returns the canonical uppercase name and true when valid.
func CanonicalizeBinding(binding string) (string, bool) {
	val := strings.TrimSpace(binding)
	if val == "" {
		return "", true // empty means unbound/disabled
	}
	upper := strings.ToUpper(val)

	// Single-letter A-Z
	if len(upper) == 1 {
		ch := upper[0]
		if ch >= 'A' && ch <= 'Z' {
			return upper, true
		}
	}

	// Function keys F1-F12
	if strings.HasPrefix(upper, "F") && len(upper) > 1 {
		if n, err := strconv.Atoi(upper[1:]); err == nil && n >= 1 && n <= 12 {
			return "F" + strconv.Itoa(n), true
		}
	}

	switch upper {
	case "SPACE", "SPACEBAR":
		return "SPACE", true
	case "ESC", "ESCAPE":
		return "ESCAPE", true
	case "ENTER", "RETURN":
		return "ENTER", true
	case "TAB":
		return "TAB", true
	case "BACKSPACE":
		return "BACKSPACE", true
	case "DELETE", "DEL":
		return "DELETE", true
	case "INSERT", "INS":
		return "INSERT", true
	case "HOME":
		return "HOME", true
	case "END":
		return "END", true
	case "PAGEUP", "PGUP":
		return "PAGEUP", true
	case "PAGEDOWN", "PGDN":
		return "PAGEDOWN", true
	case "UP", "ARROWUP":
		return "UP", true
	case "DOWN", "ARROWDOWN":
		return "DOWN", true
	case "LEFT", "ARROWLEFT":
		return "LEFT", true
	case "RIGHT", "ARROWRIGHT":
		return "RIGHT", true
	default:
		return "", false
	}
}

// NormalizeKeybinds uppercases, canonicalizes, and fills defaults when missing or invalid.
func NormalizeKeybinds(k *Keybinds) {
	if k == nil {
		return
	}
	defaults := DefaultKeybinds()
	normalize := func(target *string, fallback string) {
		if val, ok := CanonicalizeBinding(*target); ok {
			*target = val
			return
		}
		if val, ok := CanonicalizeBinding(fallback); ok {
			*target = val
		} else {
			*target = fallback
		}
	}

	normalize(&k.InsertEvent, defaults.InsertEvent)
	normalize(&k.InsertWhileEvent, defaults.InsertWhileEvent)
	normalize(&k.AddCondition, defaults.AddCondition)
	normalize(&k.AddAction, defaults.AddAction)
	normalize(&k.DeleteSelection, defaults.DeleteSelection)
	normalize(&k.Copy, defaults.Copy)
	normalize(&k.Paste, defaults.Paste)
	normalize(&k.Undo, defaults.Undo)
	normalize(&k.Redo, defaults.Redo)
	normalize(&k.ToggleDisabled, defaults.ToggleDisabled)
	normalize(&k.ToggleFolded, defaults.ToggleFolded)
	normalize(&k.Build, defaults.Build)
	normalize(&k.Save, defaults.Save)
}
