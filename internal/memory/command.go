package memory

import (
	"regexp"
	"strings"
)

// CommandKind tags the variant of a detected memory command.
type CommandKind string

const (
	CommandUpdate CommandKind = "update"
	CommandDelete CommandKind = "delete"
)

// Command is a detected instruction to update or delete an existing memory,
// as opposed to new content to remember. At most one command is detected per
// utterance; update is checked before delete at the call site, and a detected
// command suppresses plain-fact extraction for that message.
type Command struct {
	Kind       CommandKind
	Field      string // update only; "info" when no field could be inferred
	NewValue   string // update only
	SearchTerm string // delete only
	Original   string
}

// updatePattern distinguishes single-capture shapes ("update my name to X",
// field inferred by keyword scan) from double-capture ones ("update <field>
// to <value>").
type updatePattern struct {
	re     *regexp.Regexp
	double bool
}

var updatePatterns = []updatePattern{
	{regexp.MustCompile(`(?i)update\s+(?:my\s+)?(?:name|info|information|details?)\s+(?:to|as|is)\s+(.+?)(?:\.|$)`), false},
	{regexp.MustCompile(`(?i)change\s+(?:my\s+)?(?:name|info|information|details?)\s+(?:to|as|is)\s+(.+?)(?:\.|$)`), false},
	{regexp.MustCompile(`(?i)(?:my\s+)?name\s+(?:is\s+now|changed\s+to|is)\s+(.+?)(?:\.|$)`), false},
	{regexp.MustCompile(`(?i)update\s+(.+?)\s+(?:to|as)\s+(.+?)(?:\.|$)`), true},
	{regexp.MustCompile(`(?i)change\s+(.+?)\s+(?:to|as)\s+(.+?)(?:\.|$)`), true},
	{regexp.MustCompile(`(?i)correct\s+(?:my\s+)?(.+?)\s+(?:to|as)\s+(.+?)(?:\.|$)`), true},
	{regexp.MustCompile(`(?i)fix\s+(?:my\s+)?(.+?)\s+(?:to|as)\s+(.+?)(?:\.|$)`), true},
}

var deletePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)delete\s+(?:the\s+)?memory\s+(?:about|regarding|for)\s+(.+?)(?:\.|$)`),
	regexp.MustCompile(`(?i)remove\s+(?:the\s+)?memory\s+(?:about|regarding|for)\s+(.+?)(?:\.|$)`),
	regexp.MustCompile(`(?i)forget\s+(?:about\s+)?(.+?)(?:\.|$)`),
	regexp.MustCompile(`(?i)delete\s+(?:my\s+)?(?:info|information|details?)\s+(?:about|regarding)\s+(.+?)(?:\.|$)`),
	regexp.MustCompile(`(?i)remove\s+(?:my\s+)?(?:info|information|details?)\s+(?:about|regarding)\s+(.+?)(?:\.|$)`),
}

// DetectCommand classifies an utterance as an update or delete command,
// update first. Returns nil when the message is not a command.
func DetectCommand(text string) *Command {
	if cmd := DetectUpdate(text); cmd != nil {
		return cmd
	}
	return DetectDelete(text)
}

// DetectUpdate matches the update command shapes, first match wins.
func DetectUpdate(text string) *Command {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, p := range updatePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if p.double {
			return &Command{
				Kind:     CommandUpdate,
				Field:    strings.TrimSpace(m[1]),
				NewValue: strings.TrimSpace(m[2]),
				Original: text,
			}
		}
		return &Command{
			Kind:     CommandUpdate,
			Field:    inferField(text),
			NewValue: strings.TrimSpace(m[1]),
			Original: text,
		}
	}
	return nil
}

// DetectDelete matches the delete command shapes, first match wins.
func DetectDelete(text string) *Command {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, re := range deletePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil || m[1] == "" {
			continue
		}
		return &Command{
			Kind:       CommandDelete,
			SearchTerm: strings.TrimSpace(m[1]),
			Original:   text,
		}
	}
	return nil
}

// inferField scans the sentence for a known field keyword. "info" is the
// fallback when nothing more specific appears.
func inferField(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "name"):
		return "name"
	case strings.Contains(t, "location"), strings.Contains(t, "live"), strings.Contains(t, "address"):
		return "location"
	case strings.Contains(t, "favorite"), strings.Contains(t, "favourite"), strings.Contains(t, "prefer"):
		return "preference"
	case strings.Contains(t, "work"), strings.Contains(t, "job"), strings.Contains(t, "company"):
		return "work"
	case strings.Contains(t, "email"):
		return "email"
	case strings.Contains(t, "phone"):
		return "phone"
	}
	return "info"
}
