package photoscore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Scorer evaluates photograph aesthetics in two stages: a cheap universal
// quality filter over every image, then a detailed multi-axis analysis for
// images that pass the filter. Prompt embeddings are computed once at
// construction; after that the scorer is read-only and safe for concurrent
// evaluations.
type Scorer struct {
	embedder Embedder
	cfg      Config
	bank     *PromptBank

	quickVecs    [][]float32
	detailedVecs map[string][][]float32
	categoryVecs map[Category][][]float32
	negativeVecs [][]float32

	logger *log.Logger
}

// NewScorer constructs a scorer and pre-encodes the full prompt bank through
// the embedder. Pre-encoding amortizes the text-tower cost across every
// later image evaluation.
func NewScorer(ctx context.Context, embedder Embedder, cfg Config, logger *log.Logger) (*Scorer, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scorer{
		embedder:     embedder,
		cfg:          cfg,
		bank:         DefaultPromptBank(),
		detailedVecs: make(map[string][][]float32),
		categoryVecs: make(map[Category][][]float32),
		logger:       logger,
	}
	if err := s.encodePromptBank(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scorer) encodePromptBank(ctx context.Context) error {
	start := time.Now()
	var err error
	if s.quickVecs, err = s.embedder.EmbedTexts(ctx, s.bank.Quick); err != nil {
		return fmt.Errorf("embed quick prompts: %w", err)
	}
	for _, dim := range Dimensions() {
		prompts, ok := s.bank.Detailed[dim]
		if !ok || len(prompts) == 0 {
			return fmt.Errorf("prompt bank %s has no %s prompts", s.bank.Version, dim)
		}
		vecs, err := s.embedder.EmbedTexts(ctx, prompts)
		if err != nil {
			return fmt.Errorf("embed %s prompts: %w", dim, err)
		}
		s.detailedVecs[dim] = vecs
	}
	for _, cat := range Categories() {
		prompts := s.bank.CategoryPrompts(cat)
		if len(prompts) == 0 {
			return fmt.Errorf("prompt bank %s has no prompts for category %s", s.bank.Version, cat)
		}
		vecs, err := s.embedder.EmbedTexts(ctx, prompts)
		if err != nil {
			return fmt.Errorf("embed %s category prompts: %w", cat, err)
		}
		s.categoryVecs[cat] = vecs
	}
	if s.negativeVecs, err = s.embedder.EmbedTexts(ctx, s.bank.Negative); err != nil {
		return fmt.Errorf("embed negative prompts: %w", err)
	}
	s.logf("prompt bank %s encoded in %.2fs", s.bank.Version, time.Since(start).Seconds())
	return nil
}

// Close releases embedder resources.
func (s *Scorer) Close() error {
	if s.embedder != nil {
		return s.embedder.Close()
	}
	return nil
}

// Config returns a copy of the scoring configuration.
func (s *Scorer) Config() Config {
	return s.cfg.Clone()
}

// Evaluate scores one image for the given category and returns the score with
// its diagnostic breakdown. Failures are reported to the caller, never papered
// over with a fabricated score; the calling layer decides any fallback.
func (s *Scorer) Evaluate(ctx context.Context, imagePath string, category Category) (Evaluation, error) {
	imageVec, err := s.embedder.EmbedImage(ctx, imagePath)
	if err != nil {
		return Evaluation{}, err
	}

	cal := s.cfg.Calibration

	// Stage 1: universal quality filter.
	quick, err := MeanSimilarity(imageVec, s.quickVecs)
	if err != nil {
		return Evaluation{}, err
	}
	if quick < cal.QuickThreshold {
		scaled := cal.quickScale(quick)
		s.logf("quick exit for %s: raw=%.3f score=%.1f", imagePath, quick, scaled)
		return Evaluation{
			Score: scaled,
			Breakdown: Breakdown{
				UniversalRaw:    quick,
				UniversalScaled: scaled,
				Note:            "quick evaluation only",
			},
			Method: s.method("quick"),
		}, nil
	}

	// Stage 2: per-axis similarities. quick is reused as the universal axis.
	axes := make(map[string]float64, len(s.detailedVecs))
	for _, dim := range Dimensions() {
		score, err := MeanSimilarity(imageVec, s.detailedVecs[dim])
		if err != nil {
			return Evaluation{}, err
		}
		axes[dim] = score
	}
	categoryScore, err := MeanSimilarity(imageVec, s.categoryGroup(category))
	if err != nil {
		return Evaluation{}, err
	}
	negativeScore, err := MeanSimilarity(imageVec, s.negativeVecs)
	if err != nil {
		return Evaluation{}, err
	}

	w := s.cfg.Weights
	weighted := quick*w.Universal +
		axes[DimTechnical]*w.Technical +
		axes[DimComposition]*w.Composition +
		axes[DimLighting]*w.Lighting +
		categoryScore*w.Category

	score := cal.calibrate(weighted)
	penalty := cal.negativePenalty(negativeScore)
	score = clamp(score-penalty, detailedScoreFloor, detailedScoreCeil)
	tier := cal.tier(weighted)
	s.logf("detailed score for %s: weighted=%.3f penalty=%.2f score=%.1f tier=%s",
		imagePath, weighted, penalty, score, tier)

	return Evaluation{
		Score: round1(score),
		Breakdown: Breakdown{
			UniversalRaw:    quick,
			TechnicalRaw:    axes[DimTechnical],
			CompositionRaw:  axes[DimComposition],
			LightingRaw:     axes[DimLighting],
			CategoryRaw:     categoryScore,
			NegativeRaw:     negativeScore,
			WeightedRaw:     weighted,
			NegativePenalty: penalty,
			Tier:            tier,
		},
		Method: s.method("detailed"),
	}, nil
}

// categoryGroup resolves the embedding matrix for a category with an explicit
// default arm, mirroring the prompt bank's "other" fallback.
func (s *Scorer) categoryGroup(c Category) [][]float32 {
	if vecs, ok := s.categoryVecs[c]; ok {
		return vecs
	}
	return s.categoryVecs[CategoryOther]
}

func (s *Scorer) method(stage string) string {
	return fmt.Sprintf("%s-%s", s.embedder.ModelID(), stage)
}

func (s *Scorer) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
