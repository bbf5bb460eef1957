package session

import (
	"testing"

	"github.com/matheus3301/jobdesk/internal/config"
)

func TestResolvePrecedence(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	if got, err := Resolve(""); err != nil || got != DefaultSessionName {
		t.Errorf("Resolve(\"\") = %q, %v; want %q", got, err, DefaultSessionName)
	}

	if err := config.Save(ConfigPath(), &config.Config{DefaultSession: "work"}); err != nil {
		t.Fatal(err)
	}
	if got, _ := Resolve(""); got != "work" {
		t.Errorf("Resolve(\"\") = %q, want work from config", got)
	}
	if got, _ := Resolve("personal"); got != "personal" {
		t.Errorf("Resolve(personal) = %q, want flag to win", got)
	}
	if _, err := Resolve("Bad Name"); err == nil {
		t.Error("Resolve should reject invalid names")
	}
}
