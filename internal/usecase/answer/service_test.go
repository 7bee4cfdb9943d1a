package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
)

type mockSearch struct {
	results    []domain.RawResult
	err        error
	called     bool
	lastTarget string
	lastQuery  domain.SearchQuery
}

func (m *mockSearch) Search(_ context.Context, target string, q domain.SearchQuery) ([]domain.RawResult, error) {
	m.called = true
	m.lastTarget = target
	m.lastQuery = q
	return m.results, m.err
}

type mockGenerator struct {
	text       string
	err        error
	called     bool
	lastPrompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.called = true
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func testConfig(mode domain.AnswerMode) Config {
	return Config{
		Project:             "utahai",
		Location:            "global",
		Collection:          domain.DefaultCollection,
		ModelID:             "gemini-1.5-pro",
		Mode:                mode,
		DefaultUserPseudoID: domain.AnonUserPseudoID,
	}
}

func newTestService(search SearchBackend, gen Generator, mode domain.AnswerMode) *Service {
	resolver := NewResolver(nil, "", "kb_42", false, zap.NewNop())
	return New(search, gen, resolver, testConfig(mode))
}

func refundRawResult() domain.RawResult {
	return domain.RawResult{
		ID:  "doc-refunds",
		URI: "gs://kb/refunds",
		Metadata: map[string]any{
			"title": "Refunds",
			"link":  "https://x/r",
			"snippets": []any{
				map[string]any{"snippet": "Refunds within 30 days"},
			},
		},
	}
}

func TestAnswer_EmptyQuery(t *testing.T) {
	svc := newTestService(&mockSearch{}, &mockGenerator{}, domain.ModeExtractive)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Answer(context.Background(), q, "")
		if !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("query %q: expected ErrEmptyQuery, got %v", q, err)
		}
	}
}

func TestAnswer_ExtractiveEndToEnd(t *testing.T) {
	search := &mockSearch{results: []domain.RawResult{refundRawResult()}}
	svc := newTestService(search, nil, domain.ModeExtractive)

	res, err := svc.Answer(context.Background(), "refund policy", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer != "Refunds within 30 days" {
		t.Errorf("expected extracted snippet, got %q", res.Answer)
	}
	if len(res.Citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(res.Citations))
	}
	c := res.Citations[0]
	if c.Title != "Refunds" || c.URI != "https://x/r" || c.Snippet != "Refunds within 30 days" {
		t.Errorf("unexpected citation: %+v", c)
	}
	if res.Model != "gemini-1.5-pro" {
		t.Errorf("expected model id, got %q", res.Model)
	}
	if res.Err != "" {
		t.Errorf("expected no error field, got %q", res.Err)
	}
}

func TestAnswer_SearchTargetAndQuery(t *testing.T) {
	search := &mockSearch{}
	svc := newTestService(search, nil, domain.ModeExtractive)

	if _, err := svc.Answer(context.Background(), "  refund policy  ", "sess-7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantTarget := "projects/utahai/locations/global/collections/default_collection/dataStores/kb_42/servingConfigs/default_serving_config"
	if search.lastTarget != wantTarget {
		t.Errorf("expected target %q, got %q", wantTarget, search.lastTarget)
	}
	if search.lastQuery.Text != "refund policy" {
		t.Errorf("expected trimmed query, got %q", search.lastQuery.Text)
	}
	if search.lastQuery.UserPseudoID != "sess-7" {
		t.Errorf("expected session pseudo id, got %q", search.lastQuery.UserPseudoID)
	}
	if search.lastQuery.PageSize != domain.DefaultPageSize || !search.lastQuery.SafeSearch {
		t.Errorf("expected bounded safe query, got %+v", search.lastQuery)
	}
}

func TestAnswer_SearchFaultFallsBack(t *testing.T) {
	search := &mockSearch{err: errors.New("transport is closing")}
	svc := newTestService(search, &mockGenerator{}, domain.ModeGenerative)

	res, err := svc.Answer(context.Background(), "refund policy", "")
	if err != nil {
		t.Fatalf("pipeline faults must not propagate, got %v", err)
	}
	if !strings.Contains(res.Answer, "refund policy") {
		t.Errorf("fallback answer must echo the query, got %q", res.Answer)
	}
	if len(res.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(res.Citations))
	}
	if res.Citations == nil {
		t.Error("citations must serialize as [], not null")
	}
	if res.Err == "" {
		t.Error("expected populated error field")
	}
}

func TestAnswer_SearchUnavailableFallsBack(t *testing.T) {
	svc := newTestService(nil, nil, domain.ModeExtractive)

	res, err := svc.Answer(context.Background(), "refund policy", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Err == "" || !strings.Contains(res.Answer, "refund policy") {
		t.Errorf("expected fallback result, got %+v", res)
	}
}

func TestAnswer_GenerativeUsesRetrievedContext(t *testing.T) {
	search := &mockSearch{results: []domain.RawResult{refundRawResult()}}
	gen := &mockGenerator{text: "Refunds are honored for 30 days."}
	svc := newTestService(search, gen, domain.ModeGenerative)

	res, err := svc.Answer(context.Background(), "refund policy", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gen.called {
		t.Fatal("expected generator to be invoked")
	}
	if res.Answer != "Refunds are honored for 30 days." {
		t.Errorf("expected generated text, got %q", res.Answer)
	}
	if !strings.Contains(gen.lastPrompt, "https://x/r") || !strings.Contains(gen.lastPrompt, "Refunds within 30 days") {
		t.Error("prompt must embed citation source and snippet")
	}
	if len(res.Citations) != 1 {
		t.Errorf("expected citations alongside the generated answer, got %d", len(res.Citations))
	}
}

func TestAnswer_GenerativeNoCitationsSkipsModel(t *testing.T) {
	search := &mockSearch{}
	gen := &mockGenerator{text: "should not be used"}
	svc := newTestService(search, gen, domain.ModeGenerative)

	res, err := svc.Answer(context.Background(), "unknown topic", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.called {
		t.Error("generator must not run without grounding context")
	}
	if res.Answer != domain.AnswerNotFound {
		t.Errorf("expected %q, got %q", domain.AnswerNotFound, res.Answer)
	}
	if len(res.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(res.Citations))
	}
}

func TestAnswer_GenerationFaultFallsBack(t *testing.T) {
	search := &mockSearch{results: []domain.RawResult{refundRawResult()}}
	gen := &mockGenerator{err: errors.New("quota exhausted")}
	svc := newTestService(search, gen, domain.ModeGenerative)

	res, err := svc.Answer(context.Background(), "refund policy", "")
	if err != nil {
		t.Fatalf("pipeline faults must not propagate, got %v", err)
	}
	if res.Err == "" || !strings.Contains(res.Err, "quota exhausted") {
		t.Errorf("expected error preserved for diagnostics, got %q", res.Err)
	}
	if !strings.Contains(res.Answer, "refund policy") {
		t.Errorf("fallback answer must echo the query, got %q", res.Answer)
	}
}

func TestAnswer_GenerativeWithoutProviderFallsBack(t *testing.T) {
	search := &mockSearch{results: []domain.RawResult{refundRawResult()}}
	svc := newTestService(search, nil, domain.ModeGenerative)

	res, err := svc.Answer(context.Background(), "refund policy", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Err == "" {
		t.Error("expected populated error field")
	}
}

func TestAnswer_ExtractiveNoResults(t *testing.T) {
	svc := newTestService(&mockSearch{}, nil, domain.ModeExtractive)

	res, err := svc.Answer(context.Background(), "unknown topic", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer != domain.AnswerNotFound {
		t.Errorf("expected %q, got %q", domain.AnswerNotFound, res.Answer)
	}
	if len(res.Citations) != 0 {
		t.Errorf("expected empty citations, got %d", len(res.Citations))
	}
}
