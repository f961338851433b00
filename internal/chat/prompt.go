package chat

import (
	"regexp"
	"strings"

	"github.com/iammorganparry/memchat/internal/models"
)

const memoryManagementNote = "\n\nYou can help the user manage their memories. If they ask to update or change information, acknowledge that you'll update their stored memory. If they ask to delete or forget something, acknowledge that you'll remove it from memory."

const tableDirective = "\n\nPlease format your response as a markdown table when appropriate."

const referencesDirective = "\n\nPlease include relevant reference links and sources when providing information, especially for factual data, statistics, research findings, or technical information. Format references as markdown links at the end of your response."

var tableKeywords = []string{
	"table",
	"tabular",
	"data in table",
	"format as table",
	"show in table",
	"list in table",
	"display as table",
	"create table",
	"make table",
	"table format",
	"tabular format",
	"in a table",
	"as a table",
}

// wantsTable detects requests for tabular output.
func wantsTable(input string) bool {
	lower := strings.ToLower(input)
	for _, kw := range tableKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// buildPrompt assembles the full single-string prompt: memory context,
// recent history as alternating User/Assistant lines, behavioral
// directives, and the current input with a trailing Assistant cue.
func buildPrompt(memoryContext string, history []*models.Message, input string, historyLimit int) string {
	var ctx strings.Builder

	if len(history) > 0 {
		recent := history
		if historyLimit > 0 && len(recent) > historyLimit {
			recent = recent[len(recent)-historyLimit:]
		}
		lines := make([]string, 0, len(recent))
		for _, msg := range recent {
			if msg.Sender == models.SenderUser {
				lines = append(lines, "User: "+msg.Content)
			} else {
				lines = append(lines, "Assistant: "+msg.Content)
			}
		}
		ctx.WriteString(strings.Join(lines, "\n\n"))
		ctx.WriteString("\n\n")
	}

	context := ctx.String()
	if memoryContext != "" {
		context = memoryContext + context + memoryManagementNote
	}

	modified := input
	if wantsTable(input) {
		modified += tableDirective
	}
	modified += referencesDirective

	return context + "User: " + modified + "\n\nAssistant:"
}

var titleStripRe = regexp.MustCompile("[#*_`\\[\\]]")

var sentenceSplitRe = regexp.MustCompile(`[.!?]`)

// deriveTitle turns the first sentence of a reply into a conversation
// title: markdown punctuation stripped, truncated to 50 runes. Returns ""
// when nothing usable remains.
func deriveTitle(reply string) string {
	first := sentenceSplitRe.Split(reply, 2)[0]
	title := strings.TrimSpace(titleStripRe.ReplaceAllString(strings.TrimSpace(first), ""))
	if runes := []rune(title); len(runes) > 50 {
		title = string(runes[:50]) + "..."
	}
	return title
}
