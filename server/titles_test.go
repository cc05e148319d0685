package server

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFallbackTitle(t *testing.T) {
	if got := FallbackTitle("  revisa   el  serial ALCL12345678  "); got != "revisa el serial ALCL12345678" {
		t.Errorf("Whitespace not collapsed: %q", got)
	}
	if got := FallbackTitle(""); got != "Nueva conversación" {
		t.Errorf("Empty message should get a default title, got %q", got)
	}
}

func TestFallbackTitleClampsLongMessages(t *testing.T) {
	long := strings.Repeat("diagnóstico ", 30)
	got := FallbackTitle(long)
	if utf8.RuneCountInString(got) > titleMaxLen {
		t.Fatalf("Title too long: %d runes", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Clamped title should end with ellipsis: %q", got)
	}
}
