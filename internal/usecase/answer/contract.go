package answer

import (
	"context"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
)

// SearchBackend issues a bounded search against the managed index.
type SearchBackend interface {
	Search(ctx context.Context, servingConfig string, query domain.SearchQuery) ([]domain.RawResult, error)
}

// DataStoreLister lists data stores under a collection parent path.
type DataStoreLister interface {
	ListDataStores(ctx context.Context, parent string) ([]domain.DataStore, error)
}

// Generator produces text from a prompt, constrained to the supplied context.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
