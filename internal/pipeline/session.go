package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"minirag/internal/domain"
)

// Session owns the active retriever. Each Ingest replaces it wholesale; until
// the first successful Ingest, Answer returns a StateError.
//
// Ingest holds the write lock while it indexes, so answers never read a store
// that is being reset and two ingests never interleave on one index.
type Session struct {
	pipeline *Pipeline
	logger   arbor.ILogger

	mu        sync.RWMutex
	retriever domain.Retriever
	source    string
	chunks    int
}

func NewSession(p *Pipeline, logger arbor.ILogger) *Session {
	return &Session{pipeline: p, logger: logger}
}

// IngestResult describes a completed upload.
type IngestResult struct {
	Source  string
	Chunks  int
	Elapsed time.Duration
}

// Ingest chunks and indexes text, then swaps in a retriever over it. A failure
// before the store is touched keeps the previous retriever active; a failure
// after the store was reset clears it, and Answer reports a StateError.
func (s *Session) Ingest(ctx context.Context, text, source string) (IngestResult, error) {
	if strings.TrimSpace(text) == "" {
		return IngestResult{}, domain.NewInputError("Text content cannot be empty.")
	}
	start := time.Now()
	chunks := s.pipeline.Chunker.Chunk(text, source)
	if len(chunks) == 0 {
		return IngestResult{}, domain.NewInputError("No text content found in %s.", source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.pipeline.Indexer.Index(ctx, chunks)
	if err != nil {
		var lost *storeLostError
		if errors.As(err, &lost) && s.retriever != nil {
			s.logger.Warn().Err(err).Str("previous", s.source).Msg("Previous index cleared by failed ingest")
			s.retriever, s.source, s.chunks = nil, "", 0
		}
		return IngestResult{}, err
	}
	retriever, err := s.pipeline.Indexer.Retriever(store)
	if err != nil {
		return IngestResult{}, err
	}
	s.retriever = retriever
	s.source = source
	s.chunks = store.Len()

	res := IngestResult{Source: source, Chunks: store.Len(), Elapsed: time.Since(start)}
	s.logger.Info().
		Str("mode", s.pipeline.Mode).
		Str("source", source).
		Int("chunks", res.Chunks).
		Str("elapsed", res.Elapsed.String()).
		Msg("Document indexed")
	return res, nil
}

// Answer runs the synthesizer against the active retriever. Answers run
// concurrently with each other but wait for an ingest in progress.
func (s *Session) Answer(ctx context.Context, query string) (domain.AnswerResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	retriever := s.retriever
	if retriever == nil {
		return domain.AnswerResult{}, &domain.StateError{Msg: domain.ErrNoDocuments}
	}
	if strings.TrimSpace(query) == "" {
		return domain.AnswerResult{}, domain.NewInputError("Query cannot be empty.")
	}
	return s.pipeline.Synthesizer.Answer(ctx, query, retriever)
}

// Ready reports whether a document has been indexed.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retriever != nil
}

// Active returns the source name and chunk count of the indexed document.
func (s *Session) Active() (source string, chunks int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source, s.chunks
}

// Mode is the pipeline mode this session runs.
func (s *Session) Mode() string { return s.pipeline.Mode }
