// Package prompt assembles the final generation prompt.
package prompt

import (
	"strings"

	"github.com/kailas-cloud/finrag/internal/domain"
)

// DefaultInstructions is the persona block used when the caller supplies none.
const DefaultInstructions = `Answer the question based on the context below. ` +
	`If the answer is not contained within the text, say "I don't know".`

// HistoryTurns is the conversation tail depth used when the caller
// passes a non-positive value.
const HistoryTurns = 5

// Compose concatenates instructions, context, conversation tail and the
// query in fixed order, ending with the "Answer:" cue the generator
// completes. Only the last historyTurns turns are rendered; 0 or less
// falls back to HistoryTurns.
func Compose(instructions, contextBlock string, history []domain.ConversationTurn, historyTurns int, query string) string {
	if instructions == "" {
		instructions = DefaultInstructions
	}
	if historyTurns <= 0 {
		historyTurns = HistoryTurns
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")

	if contextBlock != "" {
		b.WriteString("Context:\n")
		b.WriteString(contextBlock)
		b.WriteString("\n\n")
	}

	tail := domain.TailTurns(history, historyTurns)
	if len(tail) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range tail {
			b.WriteString(renderRole(turn.Role))
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\nAnswer:")
	return b.String()
}

func renderRole(role string) string {
	if role == domain.RoleUser {
		return "User"
	}
	return "Assistant"
}
