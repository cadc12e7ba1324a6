package app

import (
	"strconv"
	"strings"

	"gdide/typedef"

	"github.com/hajimehoshi/ebiten/v2"
)

// keyFromBinding converts a canonical binding (letter, F-key, or named key) to an ebiten.Key.
func keyFromBinding(binding string) (ebiten.Key, bool) {
	canonical, ok := typedef.CanonicalizeBinding(binding)
	if !ok {
		return 0, false
	}
	if canonical == "" {
		return 0, false // disabled binding
	}

	if len(canonical) == 1 {
		ch := canonical[0]
		return ebiten.KeyA + ebiten.Key(ch-'A'), true
	}

	if strings.HasPrefix(canonical, "F") {
		n, err := strconv.Atoi(canonical[1:])
		if err == nil && n >= 1 && n <= 12 {
			return ebiten.KeyF1 + ebiten.Key(n-1), true
		}
	}

	switch canonical {
	case "SPACE":
		return ebiten.KeySpace, true
	case "ESCAPE":
		return ebiten.KeyEscape, true
	case "ENTER":
		return ebiten.KeyEnter, true
	case "TAB":
		return ebiten.KeyTab, true
	case "BACKSPACE":
		return ebiten.KeyBackspace, true
	case "DELETE":
		return ebiten.KeyDelete, true
	case "INSERT":
		return ebiten.KeyInsert, true
	case "HOME":
		return ebiten.KeyHome, true
	case "END":
		return ebiten.KeyEnd, true
	case "PAGEUP":
		return ebiten.KeyPageUp, true
	case "PAGEDOWN":
		return ebiten.KeyPageDown, true
	case "UP":
		return ebiten.KeyArrowUp, true
	case "DOWN":
		return ebiten.KeyArrowDown, true
	case "LEFT":
		return ebiten.KeyArrowLeft, true
	case "RIGHT":
		return ebiten.KeyArrowRight, true
	default:
		return 0, false
	}
}

// bindingNeedsControl reports whether a binding is only active with the
// control key held. Letters would otherwise fire while typing.
func bindingNeedsControl(binding string) bool {
	canonical, ok := typedef.CanonicalizeBinding(binding)
	return ok && len(canonical) == 1
}

// bindingMatches reports whether the key event triggers the binding.
func bindingMatches(event KeyEvent, binding string) bool {
	k, ok := keyFromBinding(binding)
	if !ok || !event.Pressed || event.Key != k {
		return false
	}
	return event.Control == bindingNeedsControl(binding)
}

// Command is an editor action bound to a key.
type Command int

const (
	CommandNone Command = iota
	CommandInsertEvent
	CommandInsertWhileEvent
	CommandAddCondition
	CommandAddAction
	CommandDeleteSelection
	CommandCopy
	CommandPaste
	CommandUndo
	CommandRedo
	CommandToggleDisabled
	CommandToggleFolded
	CommandBuild
	CommandSave
)

// commandForKey returns the command the key event triggers.
func commandForKey(kb typedef.Keybinds, event KeyEvent) Command {
	bindings := []struct {
		binding string
		command Command
	}{
		{kb.InsertEvent, CommandInsertEvent},
		{kb.InsertWhileEvent, CommandInsertWhileEvent},
		{kb.AddCondition, CommandAddCondition},
		{kb.AddAction, CommandAddAction},
		{kb.DeleteSelection, CommandDeleteSelection},
		{kb.Copy, CommandCopy},
		{kb.Paste, CommandPaste},
		{kb.Undo, CommandUndo},
		{kb.Redo, CommandRedo},
		{kb.ToggleDisabled, CommandToggleDisabled},
		{kb.ToggleFolded, CommandToggleFolded},
		{kb.Build, CommandBuild},
		{kb.Save, CommandSave},
	}
	for _, b := range bindings {
		if bindingMatches(event, b.binding) {
			return b.command
		}
	}
	return CommandNone
}
