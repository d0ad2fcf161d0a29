package browser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-rod/rod/lib/input"
)

var modifiers = map[string]input.Key{
	"control": input.ControlLeft,
	"ctrl":    input.ControlLeft,
	"shift":   input.ShiftLeft,
	"alt":     input.AltLeft,
	"meta":    input.MetaLeft,
}

var named = map[string]input.Key{
	"enter":     input.Enter,
	"escape":    input.Escape,
	"tab":       input.Tab,
	"backspace": input.Backspace,
	"delete":    input.Delete,
	"space":     input.Space,
}

// parseChord splits "Control+Shift+z" into held modifiers and the typed key.
func parseChord(chord string) ([]input.Key, input.Key, error) {
	parts := strings.Split(chord, "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return nil, 0, fmt.Errorf("browser: empty key in chord %q", chord)
	}
	var mods []input.Key
	for _, p := range parts[:len(parts)-1] {
		k, ok := modifiers[strings.ToLower(p)]
		if !ok {
			return nil, 0, fmt.Errorf("browser: unknown modifier %q in chord %q", p, chord)
		}
		mods = append(mods, k)
	}

	last := parts[len(parts)-1]
	if k, ok := named[strings.ToLower(last)]; ok {
		return mods, k, nil
	}
	if utf8.RuneCountInString(last) != 1 {
		return nil, 0, fmt.Errorf("browser: unknown key %q in chord %q", last, chord)
	}
	r, _ := utf8.DecodeRuneInString(last)
	return mods, input.Key(r), nil
}
