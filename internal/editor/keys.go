package editor

import (
	"unicode"

	"golang.org/x/mobile/event/key"
)

// KeyShortcut is a key combination. Either Rune or Code identifies the key.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

const modifierMask = key.ModShift | key.ModControl | key.ModAlt | key.ModMeta

func (k KeyShortcut) matches(e key.Event) bool {
	if e.Modifiers&modifierMask != k.Modifiers {
		return false
	}
	if k.Code != 0 && k.Code == e.Code {
		return true
	}
	return k.Rune != 0 && k.Rune == unicode.ToLower(e.Rune)
}

// binding ties shortcuts to an action name.
type binding struct {
	action string
	label  string
	keys   []KeyShortcut
}

const (
	actEdit    = "edit"
	actKeep    = "keep"
	actDiscard = "discard"
	actSmaller = "smaller"
	actLarger  = "larger"
	actUndo    = "undo"
	actRedo    = "redo"
	actClear   = "clear"
	actApply   = "apply"
	actCancel  = "cancel"
	actView    = "view"
	actSave    = "save"
	actCopy    = "copy"
	actQuit    = "quit"
)

var bindings = []binding{
	{actEdit, "E:edit mask", []KeyShortcut{{Rune: 'e'}}},
	{actKeep, "A:keep", []KeyShortcut{{Rune: 'a'}}},
	{actDiscard, "R:discard", []KeyShortcut{{Rune: 'r'}}},
	{actSmaller, "[:smaller", []KeyShortcut{{Code: key.CodeLeftSquareBracket}}},
	{actLarger, "]:larger", []KeyShortcut{{Code: key.CodeRightSquareBracket}}},
	{actUndo, "^Z:undo", []KeyShortcut{{Rune: 'z', Modifiers: key.ModControl}}},
	{actRedo, "^Y:redo", []KeyShortcut{
		{Rune: 'y', Modifiers: key.ModControl},
		{Rune: 'z', Modifiers: key.ModControl | key.ModShift},
	}},
	{actClear, "C:clear", []KeyShortcut{{Rune: 'c'}}},
	{actApply, "Enter:apply", []KeyShortcut{{Code: key.CodeReturnEnter}, {Code: key.CodeKeypadEnter}}},
	{actCancel, "Esc:cancel", []KeyShortcut{{Code: key.CodeEscape}}},
	{actView, "Tab:original/result", []KeyShortcut{{Code: key.CodeTab}}},
	{actSave, "^S:save", []KeyShortcut{{Rune: 's', Modifiers: key.ModControl}}},
	{actCopy, "^C:copy", []KeyShortcut{{Rune: 'c', Modifiers: key.ModControl}}},
	{actQuit, "Q:quit", []KeyShortcut{{Rune: 'q'}}},
}

// actionFor returns the action bound to e, or "".
func actionFor(e key.Event) string {
	for _, b := range bindings {
		for _, k := range b.keys {
			if k.matches(e) {
				return b.action
			}
		}
	}
	return ""
}

func labelFor(action string) string {
	for _, b := range bindings {
		if b.action == action {
			return b.label
		}
	}
	return action
}

// viewingActions and editingActions are offered in the bottom bar.
var (
	viewingActions = []string{actEdit, actView, actSave, actCopy, actQuit}
	editingActions = []string{actApply, actCancel, actUndo, actRedo, actClear, actSave, actCopy}
)
