package domain

import "fmt"

// AnswerMode selects the synthesis strategy for the final answer.
type AnswerMode string

const (
	// ModeExtractive answers with the top retrieved snippet, no model call.
	ModeExtractive AnswerMode = "extractive"
	// ModeGenerative answers by prompting a model with the retrieved context.
	ModeGenerative AnswerMode = "generative"
)

// ParseAnswerMode validates a mode string from configuration.
func ParseAnswerMode(s string) (AnswerMode, error) {
	switch AnswerMode(s) {
	case ModeExtractive, ModeGenerative:
		return AnswerMode(s), nil
	}
	return "", fmt.Errorf("unknown answer mode %q", s)
}

// Citation is a normalized, user-facing search hit. Every field defaults to
// an empty string, never absent, so consumers do not special-case missing
// fields.
type Citation struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URI     string `json:"uri"`
	Snippet string `json:"snippet"`
}

// AnswerResult is the pipeline outcome returned to the HTTP boundary.
// Answer is always non-empty; Err is populated only when the pipeline
// degraded into a fallback answer.
type AnswerResult struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"results"`
	Model     string     `json:"model"`
	Err       string     `json:"error,omitempty"`
}

// Canned answers for the degenerate pipeline outcomes.
const (
	// AnswerNotFound is returned when retrieval yields no citations.
	AnswerNotFound = "I could not find any relevant documents to answer your question."
	// AnswerFoundNoSnippet is returned when citations exist but none carries a snippet.
	AnswerFoundNoSnippet = "I found some relevant results."
)

// FallbackAnswer echoes the query back when a pipeline stage failed.
func FallbackAnswer(query string) string {
	return fmt.Sprintf("(Fallback) An error occurred. Here is your query back: '%s'.", query)
}
