package memory

import (
	"regexp"
	"strings"

	"github.com/iammorganparry/memchat/internal/models"
)

// Candidate is a memory extracted from a chat message but not yet persisted.
type Candidate struct {
	Content    string
	Type       models.MemoryType
	Importance int
}

// extractRule pairs a pattern with the memory type and importance it implies.
// Rules are tried in order and the first match wins, so the ordering encodes
// priority: explicit remember directives, then preferences, then facts.
type extractRule struct {
	re         *regexp.Regexp
	memType    models.MemoryType
	importance int
}

var extractRules = []extractRule{
	// Direct "remember" directives.
	{regexp.MustCompile(`(?i)remember\s+(?:this|that)\s*[:;]\s*(.+?)(?:[.!?]|$)`), models.MemoryTypeInstruction, 5},
	{regexp.MustCompile(`(?i)remember\s+(?:that\s+)?(?:i\s+)?(.+?)(?:[.!?]|$)`), models.MemoryTypeInstruction, 5},
	{regexp.MustCompile(`(?i)(?:always|never)\s+(?:remember|keep in mind)\s+(?:that\s+)?(?:i\s+)?(.+?)(?:[.!?]|$)`), models.MemoryTypeInstruction, 5},
	{regexp.MustCompile(`(?i)keep in mind\s+(?:that\s+)?(?:i\s+)?(.+?)(?:[.!?]|$)`), models.MemoryTypeInstruction, 5},
	{regexp.MustCompile(`(?i)don'?t forget\s+(?:that\s+)?(?:i\s+)?(.+?)(?:[.!?]|$)`), models.MemoryTypeInstruction, 5},

	// Preference statements.
	{regexp.MustCompile(`(?i)(?:i\s+)?(?:like|prefer|love|hate|dislike)\s+(.+?)(?:[.!?]|$)`), models.MemoryTypePreference, 4},
	{regexp.MustCompile(`(?i)(?:my|i)\s+(?:favorite|fav)\s+(?:is\s+)?(.+?)(?:[.!?]|$)`), models.MemoryTypePreference, 4},

	// Identity and fact statements. The verb stays in the capture so the
	// stored content reads as a sentence fragment ("live in Austin").
	{regexp.MustCompile(`(?i)(?:i\s+)?((?:work|live|study)\s+(?:at|in)\s+.+?)(?:[.!?]|$)`), models.MemoryTypeFact, 3},
	{regexp.MustCompile(`(?i)(?:i'?m|i am)\s+(?:a|an)\s+(.+?)(?:[.!?]|$)`), models.MemoryTypeFact, 3},
	{regexp.MustCompile(`(?i)(?:i'?m|i am)\s+(.+?)(?:[.!?]|$)`), models.MemoryTypeFact, 3},
}

// contextRe marks instructions phrased around future reference ("next time",
// "in the future"); the main clause before the phrase is what gets stored.
var contextRe = regexp.MustCompile(`(?i)(?:in|for|during)\s+(?:the\s+)?(?:future|next time|later)`)

var (
	leadingPronounRe = regexp.MustCompile(`(?i)^(?:that|this|i|me|my)\s+`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

const minContentLen = 5

// Extract runs the pattern rules against a user utterance and returns the
// first matching candidate, or nil if nothing worth remembering was found.
func Extract(text string) *Candidate {
	text = strings.TrimSpace(text)
	if len(text) < minContentLen {
		return nil
	}

	for _, rule := range extractRules {
		m := rule.re.FindStringSubmatch(text)
		if m == nil || m[1] == "" {
			continue
		}
		content := cleanContent(m[1])
		if len(content) < minContentLen {
			continue
		}
		return &Candidate{Content: content, Type: rule.memType, Importance: rule.importance}
	}

	if loc := contextRe.FindStringIndex(text); loc != nil {
		main := cleanContent(text[:loc[0]])
		if len(main) >= minContentLen {
			return &Candidate{Content: main, Type: models.MemoryTypeInstruction, Importance: 4}
		}
	}

	return nil
}

// ExtractAll splits the utterance into sentences and extracts from each one
// independently, so a single message can yield several memories. There is no
// content dedup at this layer; dedup downstream is by ID only.
func ExtractAll(text string) []*Candidate {
	var out []*Candidate
	for _, sentence := range splitSentences(text) {
		if c := Extract(sentence); c != nil {
			out = append(out, c)
		}
	}
	return out
}

var sentenceRe = regexp.MustCompile(`[.!?]+`)

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceRe.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func cleanContent(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = leadingPronounRe.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
