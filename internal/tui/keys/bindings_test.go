package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestPageBindingsShadowGlobal(t *testing.T) {
	r := NewRegistry()
	var fired string
	r.AddGlobal("refresh", &Action{Key: tcell.KeyRune, Rune: 'r', Description: "r:refresh", Visible: true,
		Handler: func() { fired = "global" }})
	r.AddView("notifications", "read", &Action{Key: tcell.KeyRune, Rune: 'r', Description: "r:mark read", Visible: true,
		Handler: func() { fired = "view" }})

	ev := tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)
	if !r.HandleEvent("notifications", ev) || fired != "view" {
		t.Errorf("fired = %q, want view binding", fired)
	}
	if !r.HandleEvent("search", ev) || fired != "global" {
		t.Errorf("fired = %q, want global binding", fired)
	}
	if r.HandleEvent("search", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone)) {
		t.Error("unbound key should not be handled")
	}
}

func TestHintsKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal("quit", &Action{Key: tcell.KeyCtrlC, Description: "^C:quit", Visible: true})
	r.AddView("notifications", "read", &Action{Rune: 'r', Key: tcell.KeyRune, Description: "r:read", Visible: true})
	r.AddView("notifications", "all", &Action{Rune: 'a', Key: tcell.KeyRune, Description: "a:read all", Visible: true})
	r.AddView("notifications", "hidden", &Action{Rune: 'x', Key: tcell.KeyRune, Description: "x", Visible: false})
	r.AddView("notifications", "read", &Action{Rune: 'r', Key: tcell.KeyRune, Description: "r:mark read", Visible: true})

	got := r.Hints("notifications")
	want := []string{"r:mark read", "a:read all", "^C:quit"}
	if len(got) != len(want) {
		t.Fatalf("hints = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hints[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
