package memory

import (
	"testing"

	"github.com/iammorganparry/memchat/internal/models"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		want       string
		wantType   models.MemoryType
		importance int
	}{
		{
			name:       "remember directive",
			text:       "Please remember my anniversary is June 5.",
			want:       "anniversary is June 5",
			wantType:   models.MemoryTypeInstruction,
			importance: 5,
		},
		{
			name:       "remember this colon",
			text:       "Remember this: the wifi password is hunter2",
			want:       "the wifi password is hunter2",
			wantType:   models.MemoryTypeInstruction,
			importance: 5,
		},
		{
			name:       "preference",
			text:       "I really think I like spicy food!",
			want:       "spicy food",
			wantType:   models.MemoryTypePreference,
			importance: 4,
		},
		{
			name:       "location fact keeps the verb",
			text:       "I live in Austin.",
			want:       "live in Austin",
			wantType:   models.MemoryTypeFact,
			importance: 3,
		},
		{
			name:       "identity fact",
			text:       "I'm a software engineer",
			want:       "software engineer",
			wantType:   models.MemoryTypeFact,
			importance: 3,
		},
		{
			name:       "future-reference context",
			text:       "Use metric units in the future",
			want:       "Use metric units",
			wantType:   models.MemoryTypeInstruction,
			importance: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if got == nil {
				t.Fatalf("Extract(%q) = nil, want %q", tt.text, tt.want)
			}
			if got.Content != tt.want {
				t.Errorf("content = %q, want %q", got.Content, tt.want)
			}
			if got.Type != tt.wantType {
				t.Errorf("type = %q, want %q", got.Type, tt.wantType)
			}
			if got.Importance != tt.importance {
				t.Errorf("importance = %d, want %d", got.Importance, tt.importance)
			}
		})
	}
}

func TestExtractDiscards(t *testing.T) {
	for _, text := range []string{
		"",
		"ok",
		"what time is it?",
		"I like tea", // captured content too short to keep
	} {
		if got := Extract(text); got != nil {
			t.Errorf("Extract(%q) = %+v, want nil", text, got)
		}
	}
}

func TestExtractAll(t *testing.T) {
	text := "I live in Austin. What a day! I like deep dish pizza."
	got := ExtractAll(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].Content != "live in Austin" || got[0].Type != models.MemoryTypeFact {
		t.Errorf("unexpected first candidate: %+v", got[0])
	}
	if got[1].Content != "deep dish pizza" || got[1].Type != models.MemoryTypePreference {
		t.Errorf("unexpected second candidate: %+v", got[1])
	}
}
