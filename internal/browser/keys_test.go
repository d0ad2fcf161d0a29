package browser

import (
	"testing"

	"github.com/go-rod/rod/lib/input"
)

func TestParseChord(t *testing.T) {
	mods, key, err := parseChord("Control+z")
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 1 || mods[0] != input.ControlLeft {
		t.Errorf("mods: got %v", mods)
	}
	if key != input.Key('z') {
		t.Errorf("key: got %v", key)
	}

	mods, key, err = parseChord("ctrl+Shift+Enter")
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 2 || mods[1] != input.ShiftLeft || key != input.Enter {
		t.Errorf("got mods=%v key=%v", mods, key)
	}

	if _, key, err = parseChord("Escape"); err != nil || key != input.Escape {
		t.Errorf("bare named key: key=%v err=%v", key, err)
	}
}

func TestParseChord_Invalid(t *testing.T) {
	for _, c := range []string{"", "Control+", "Hyper+z", "Control+zz"} {
		if _, _, err := parseChord(c); err == nil {
			t.Errorf("parseChord(%q): expected error", c)
		}
	}
}
