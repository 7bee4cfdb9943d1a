package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	discoveryengine "cloud.google.com/go/discoveryengine/apiv1"
	"cloud.google.com/go/discoveryengine/apiv1/discoveryenginepb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/metrics"
)

// SearchClient is a retrieval backend on Vertex AI Search (Discovery Engine).
type SearchClient struct {
	client *discoveryengine.SearchClient
}

// NewSearchClient creates a Discovery Engine search client.
func NewSearchClient(ctx context.Context, opts ...option.ClientOption) (*SearchClient, error) {
	c, err := discoveryengine.NewSearchClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}
	return &SearchClient{client: c}, nil
}

// Search executes a query against the serving config and drains up to
// q.PageSize results. Backend faults are wrapped with domain.ErrSearchBackend.
func (s *SearchClient) Search(ctx context.Context, servingConfig string, q domain.SearchQuery) ([]domain.RawResult, error) {
	req := &discoveryenginepb.SearchRequest{
		ServingConfig: servingConfig,
		Query:         q.Text,
		PageSize:      int32(q.PageSize),
		UserPseudoId:  q.UserPseudoID,
		SafeSearch:    q.SafeSearch,
		QueryExpansionSpec: &discoveryenginepb.SearchRequest_QueryExpansionSpec{
			Condition: discoveryenginepb.SearchRequest_QueryExpansionSpec_AUTO,
		},
		SpellCorrectionSpec: &discoveryenginepb.SearchRequest_SpellCorrectionSpec{
			Mode: discoveryenginepb.SearchRequest_SpellCorrectionSpec_AUTO,
		},
		ContentSearchSpec: &discoveryenginepb.SearchRequest_ContentSearchSpec{
			SnippetSpec: &discoveryenginepb.SearchRequest_ContentSearchSpec_SnippetSpec{
				ReturnSnippet: true,
			},
		},
	}

	start := time.Now()

	it := s.client.Search(ctx, req)
	results := make([]domain.RawResult, 0, q.PageSize)
	for len(results) < q.PageSize {
		res, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("search %q: %v: %w", q.Text, err, domain.ErrSearchBackend)
		}
		results = append(results, rawFromResult(res))
	}

	metrics.SearchRequestsTotal.WithLabelValues("success").Inc()
	metrics.SearchRequestDuration.Observe(time.Since(start).Seconds())

	return results, nil
}

// Close releases the underlying gRPC connection.
func (s *SearchClient) Close() error {
	return s.client.Close()
}

// rawFromResult flattens a search result into the provider-neutral shape.
// The derived struct data carries title, link and snippets for web-crawled stores.
func rawFromResult(res *discoveryenginepb.SearchResponse_SearchResult) domain.RawResult {
	raw := domain.RawResult{ID: res.GetId()}

	doc := res.GetDocument()
	if doc == nil {
		return raw
	}
	if raw.ID == "" {
		raw.ID = doc.GetName()
	}
	raw.URI = doc.GetContent().GetUri()
	if data := doc.GetDerivedStructData(); data != nil {
		raw.Metadata = data.AsMap()
	}
	return raw
}
