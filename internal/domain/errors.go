package domain

import "errors"

var (
	// ErrEmptyQuery signals an empty or whitespace-only query. This is the
	// only pipeline error surfaced to the client as a request error.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrSearchBackend signals a search backend failure.
	ErrSearchBackend = errors.New("search backend error")
	// ErrSearchUnavailable signals that no search client was configured.
	ErrSearchUnavailable = errors.New("search backend not configured")
	// ErrGenerationBackend signals a generation provider failure.
	ErrGenerationBackend = errors.New("generation provider error")
	// ErrGenerationUnavailable signals that no generation provider was configured.
	ErrGenerationUnavailable = errors.New("generation provider not configured")
)
