package browser

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

func TestBlocklist_Hosts(t *testing.T) {
	bl := newBlocklist([]string{"googleapis.com", " .Firebaseapp.com "}, nil)
	cases := []struct {
		host string
		want bool
	}{
		{"googleapis.com", true},
		{"identitytoolkit.googleapis.com", true},
		{"formatflip.firebaseapp.com", true},
		{"notgoogleapis.com", false},
		{"127.0.0.1", false},
	}
	for _, c := range cases {
		if got := bl.shouldBlock(c.host, "Document"); got != c.want {
			t.Errorf("shouldBlock(%q): got %v, want %v", c.host, got, c.want)
		}
	}
}

func TestBlocklist_Types(t *testing.T) {
	bl := newBlocklist(nil, []string{"fonts", "Media"})
	if !bl.shouldBlock("cdn.example.com", "Font") {
		t.Error("font not blocked")
	}
	if !bl.shouldBlock("cdn.example.com", "Media") {
		t.Error("media not blocked")
	}
	if bl.shouldBlock("cdn.example.com", "Script") {
		t.Error("script blocked")
	}
	if bl.shouldBlock("cdn.example.com", "Image") {
		t.Error("image blocked without images entry")
	}
}

func TestConsoleText(t *testing.T) {
	args := []*proto.RuntimeRemoteObject{
		{Value: gson.New("Uncaught")},
		{Value: gson.New(42)},
		{Description: "TypeError: x is undefined"},
		nil,
	}
	got := consoleText(args)
	want := "Uncaught 42 TypeError: x is undefined"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExceptionText(t *testing.T) {
	if got := exceptionText(nil); got != "" {
		t.Errorf("nil: %q", got)
	}
	d := &proto.RuntimeExceptionDetails{Text: "Uncaught"}
	if got := exceptionText(d); got != "Uncaught" {
		t.Errorf("text only: %q", got)
	}
	d.Exception = &proto.RuntimeRemoteObject{Description: "ReferenceError: aspect is not defined"}
	if got := exceptionText(d); got != "ReferenceError: aspect is not defined" {
		t.Errorf("with exception: %q", got)
	}
}
