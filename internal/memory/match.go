package memory

import (
	"strings"

	"github.com/iammorganparry/memchat/internal/models"
)

// fieldSynonyms widens the content scan for fields whose stored phrasing
// rarely contains the field word itself ("name is Sam", "live in Austin").
var fieldSynonyms = map[string][]string{
	"name":     {"name", "is"},
	"location": {"live", "location", "address"},
}

// overlapStopwords are excluded from the word-overlap fallback so a single
// shared filler token cannot trigger a false match.
var overlapStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "my": true, "about": true,
}

// FindTarget selects at most one memory for a command to act on. Candidates
// are tried in list order, which the store keeps most-recently-updated first;
// the first hit wins and there is no scoring. A nil result is a normal
// outcome and callers must treat it as a silent no-op.
func FindTarget(memories []*models.Memory, cmd *Command) *models.Memory {
	if len(memories) == 0 || cmd == nil {
		return nil
	}

	switch cmd.Kind {
	case CommandDelete:
		term := strings.ToLower(cmd.SearchTerm)
		if term == "" {
			return nil
		}
		for _, m := range memories {
			content := strings.ToLower(m.Content)
			if content == "" {
				continue
			}
			if strings.Contains(content, term) || strings.Contains(term, firstWord(content)) {
				return m
			}
		}
		return nil

	case CommandUpdate:
		if cmd.Field != "" && cmd.Field != "info" {
			field := strings.ToLower(cmd.Field)
			keys := fieldSynonyms[field]
			if keys == nil {
				keys = []string{field}
			}
			for _, m := range memories {
				content := strings.ToLower(m.Content)
				for _, k := range keys {
					if strings.Contains(content, k) {
						return m
					}
				}
			}
			return nil
		}

		// No usable field: fall back to word overlap between the command's
		// search text and each candidate's content. The "info" placeholder
		// is skipped; it carries no signal.
		term := strings.ToLower(firstNonEmpty(cmd.SearchTerm, cmd.NewValue))
		if term == "" {
			return nil
		}
		searchWords := overlapTokens(term)
		for _, m := range memories {
			content := strings.ToLower(m.Content)
			if strings.Contains(content, term) {
				return m
			}
			contentWords := map[string]bool{}
			for _, w := range strings.Fields(content) {
				contentWords[w] = true
			}
			for _, w := range searchWords {
				if contentWords[w] {
					return m
				}
			}
		}
		return nil
	}

	return nil
}

// overlapTokens keeps only tokens meaningful enough to count as overlap.
func overlapTokens(term string) []string {
	var out []string
	for _, w := range strings.Fields(term) {
		if len(w) >= 3 && !overlapStopwords[w] {
			out = append(out, w)
		}
	}
	return out
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
