package domain

import (
	"strings"
	"testing"
)

func TestParseAnswerMode(t *testing.T) {
	tests := []struct {
		in      string
		want    AnswerMode
		wantErr bool
	}{
		{"extractive", ModeExtractive, false},
		{"generative", ModeGenerative, false},
		{"", "", true},
		{"Generative", "", true},
		{"hybrid", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAnswerMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAnswerMode(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAnswerMode(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAnswerMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFallbackAnswer_EchoesQuery(t *testing.T) {
	got := FallbackAnswer("refund policy")
	if !strings.Contains(got, "refund policy") {
		t.Errorf("fallback answer must echo the query, got %q", got)
	}
	if got != "(Fallback) An error occurred. Here is your query back: 'refund policy'." {
		t.Errorf("unexpected fallback literal: %q", got)
	}
}

func TestNewSearchQuery_Defaults(t *testing.T) {
	q := NewSearchQuery("  what is vexillology  ", "")
	if q.Text != "what is vexillology" {
		t.Errorf("expected trimmed text, got %q", q.Text)
	}
	if q.UserPseudoID != AnonUserPseudoID {
		t.Errorf("expected pseudo id %q, got %q", AnonUserPseudoID, q.UserPseudoID)
	}
	if q.PageSize != DefaultPageSize {
		t.Errorf("expected page size %d, got %d", DefaultPageSize, q.PageSize)
	}
	if !q.SafeSearch {
		t.Error("expected safe search to be enabled")
	}
}

func TestNewSearchQuery_SessionPseudoID(t *testing.T) {
	q := NewSearchQuery("q", "session-42")
	if q.UserPseudoID != "session-42" {
		t.Errorf("expected session pseudo id, got %q", q.UserPseudoID)
	}
}
