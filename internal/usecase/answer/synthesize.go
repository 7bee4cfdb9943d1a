package answer

import (
	"fmt"
	"strings"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
)

// synthesizeExtractive answers with the first non-empty snippet in
// normalized order, falling back to canned answers.
func synthesizeExtractive(citations []domain.Citation) string {
	for _, c := range citations {
		if c.Snippet != "" {
			return c.Snippet
		}
	}
	if len(citations) > 0 {
		return domain.AnswerFoundNoSnippet
	}
	return domain.AnswerNotFound
}

const promptTemplate = `You are an expert assistant. Your task is to answer the user's query based *only* on the provided context.

User Query: %s

Context:
---
%s
---

Answer:
`

// buildPrompt assembles the grounded prompt: a two-line source/content record
// per citation, wrapped in instructions that confine the model to the context.
func buildPrompt(query string, citations []domain.Citation) string {
	records := make([]string, len(citations))
	for i, c := range citations {
		records[i] = fmt.Sprintf("Source: %s\nContent: %s", c.URI, c.Snippet)
	}
	return fmt.Sprintf(promptTemplate, query, strings.Join(records, "\n"))
}
