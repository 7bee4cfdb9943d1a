package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/logger"
)

// Config holds the immutable pipeline settings.
type Config struct {
	Project             string
	Location            string
	Collection          string
	ModelID             string
	Mode                domain.AnswerMode
	DefaultUserPseudoID string
}

// Service orchestrates the retrieval and synthesis pipeline: resolve the
// data store, search it, normalize the hits into citations, and synthesize
// an answer. Backend faults degrade into a fallback AnswerResult instead of
// propagating; the only error a caller sees is domain.ErrEmptyQuery.
type Service struct {
	search   SearchBackend
	gen      Generator
	resolver *Resolver
	cfg      Config
}

// New creates the answer service. search and gen may be nil when the
// corresponding backend could not be constructed; the pipeline then serves
// fallback answers instead of refusing to start.
func New(search SearchBackend, gen Generator, resolver *Resolver, cfg Config) *Service {
	return &Service{search: search, gen: gen, resolver: resolver, cfg: cfg}
}

// Answer runs the pipeline for one query.
func (s *Service) Answer(ctx context.Context, query, sessionID string) (domain.AnswerResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.AnswerResult{}, domain.ErrEmptyQuery
	}

	log := logger.FromContext(ctx)

	if s.search == nil {
		return s.fallback(log, query, domain.ErrSearchUnavailable), nil
	}

	dataStoreID := s.resolver.Resolve(ctx)
	target := ServingConfigPath(s.cfg.Project, s.cfg.Location, s.cfg.Collection, dataStoreID)

	q := domain.NewSearchQuery(query, s.userPseudoID(sessionID))
	raws, err := s.search.Search(ctx, target, q)
	if err != nil {
		return s.fallback(log, query, err), nil
	}

	citations := normalizeResults(raws)

	answer, err := s.synthesize(ctx, query, citations)
	if err != nil {
		return s.fallback(log, query, err), nil
	}

	return domain.AnswerResult{
		Answer:    answer,
		Citations: citations,
		Model:     s.cfg.ModelID,
	}, nil
}

// synthesize applies the configured strategy. Generative mode short-circuits
// to the not-found answer on zero citations so the model is never invoked
// without grounding context.
func (s *Service) synthesize(ctx context.Context, query string, citations []domain.Citation) (string, error) {
	if s.cfg.Mode == domain.ModeExtractive {
		return synthesizeExtractive(citations), nil
	}

	if len(citations) == 0 {
		return domain.AnswerNotFound, nil
	}
	if s.gen == nil {
		return "", domain.ErrGenerationUnavailable
	}
	text, err := s.gen.Generate(ctx, buildPrompt(query, citations))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return text, nil
}

// userPseudoID picks the personalization id: session, configured default,
// then "anon". Not a correctness input.
func (s *Service) userPseudoID(sessionID string) string {
	if sessionID != "" {
		return sessionID
	}
	return s.cfg.DefaultUserPseudoID
}

func (s *Service) fallback(log *zap.Logger, query string, err error) domain.AnswerResult {
	log.Error("Answer pipeline failed, serving fallback",
		zap.String("query", query),
		zap.Error(err),
	)
	return domain.AnswerResult{
		Answer:    domain.FallbackAnswer(query),
		Citations: []domain.Citation{},
		Model:     s.cfg.ModelID,
		Err:       err.Error(),
	}
}
