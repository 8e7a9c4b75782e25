package photoscore

import (
	"context"
	"log"
	"sync"
)

// sharedState guards lazy construction of the process-wide scorer. The mutex
// is held for the whole build so concurrent first calls load the model exactly
// once; a failed build leaves no instance behind, so the next call retries
// instead of caching the failure.
type sharedState struct {
	mu     sync.Mutex
	scorer *Scorer
}

func (s *sharedState) get(build func() (*Scorer, error)) (*Scorer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scorer != nil {
		return s.scorer, nil
	}
	scorer, err := build()
	if err != nil {
		return nil, err
	}
	s.scorer = scorer
	return scorer, nil
}

var shared sharedState

// Shared returns the process-wide scorer, constructing it on first use. The
// scorer is expensive to build (model load plus prompt-bank encoding) and
// stateless once built, so one instance serves every request for the process
// lifetime. Config and logger only matter for the call that wins construction.
func Shared(ctx context.Context, cfg Config, logger *log.Logger) (*Scorer, error) {
	return shared.get(func() (*Scorer, error) {
		embedder, err := NewOrtEmbedder(cfg.Embedder)
		if err != nil {
			return nil, err
		}
		scorer, err := NewScorer(ctx, embedder, cfg, logger)
		if err != nil {
			_ = embedder.Close()
			return nil, err
		}
		return scorer, nil
	})
}
