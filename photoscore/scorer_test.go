package photoscore

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder produces deterministic 2-D embeddings. The image embeds to
// (1,0); each prompt maps to the unit vector (sim, sqrt(1-sim^2)), so the
// cosine between image and prompt equals sim up to float32 rounding. Both
// prompts of a group share one vector, making the group mean equal sim too.
type stubEmbedder struct {
	sims     map[string]float64
	imageVec []float32
	imageErr error
	modelID  string
}

func (s *stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		sim, ok := s.sims[t]
		if !ok {
			sim = 0.25
		}
		out[i] = unitVec(sim)
	}
	return out, nil
}

func (s *stubEmbedder) EmbedImage(_ context.Context, _ string) ([]float32, error) {
	if s.imageErr != nil {
		return nil, s.imageErr
	}
	if s.imageVec != nil {
		return s.imageVec, nil
	}
	return []float32{1, 0}, nil
}

func (s *stubEmbedder) Close() error { return nil }

func (s *stubEmbedder) ModelID() string {
	if s.modelID != "" {
		return s.modelID
	}
	return "stub-clip"
}

func unitVec(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

// bankSims assigns one target similarity per prompt group of the default bank.
func bankSims(quick, technical, composition, lighting, category, negative float64) map[string]float64 {
	bank := DefaultPromptBank()
	m := make(map[string]float64)
	for _, p := range bank.Quick {
		m[p] = quick
	}
	for dim, target := range map[string]float64{
		DimTechnical:   technical,
		DimComposition: composition,
		DimLighting:    lighting,
	} {
		for _, p := range bank.Detailed[dim] {
			m[p] = target
		}
	}
	for _, prompts := range bank.Category {
		for _, p := range prompts {
			m[p] = category
		}
	}
	for _, p := range bank.Negative {
		m[p] = negative
	}
	return m
}

func newTestScorer(t *testing.T, embedder Embedder, cfg Config) *Scorer {
	t.Helper()
	scorer, err := NewScorer(context.Background(), embedder, cfg, nil)
	require.NoError(t, err)
	return scorer
}

func TestEvaluateQuickExit(t *testing.T) {
	embedder := &stubEmbedder{sims: bankSims(0.15, 0.3, 0.3, 0.3, 0.3, 0.1)}
	scorer := newTestScorer(t, embedder, Config{})

	ev, err := scorer.Evaluate(context.Background(), "photo.jpg", CategoryLandscape)
	require.NoError(t, err)

	// ((0.15-0.10)/(0.20-0.10))*20+20 = 30
	assert.InDelta(t, 30.0, ev.Score, 0.01)
	assert.Equal(t, "stub-clip-quick", ev.Method)
	assert.InDelta(t, 0.15, ev.Breakdown.UniversalRaw, 1e-4)
	assert.InDelta(t, 30.0, ev.Breakdown.UniversalScaled, 0.01)
	assert.Equal(t, "quick evaluation only", ev.Breakdown.Note)
	assert.Zero(t, ev.Breakdown.WeightedRaw)
	assert.Empty(t, ev.Breakdown.Tier)
}

func TestEvaluateQuickExitFloorsGarbageInput(t *testing.T) {
	embedder := &stubEmbedder{sims: bankSims(0.02, 0.3, 0.3, 0.3, 0.3, 0.1)}
	scorer := newTestScorer(t, embedder, Config{})

	ev, err := scorer.Evaluate(context.Background(), "noise.jpg", CategoryOther)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, ev.Score, 0.01)
}

func TestEvaluateThresholdBoundaryTakesDetailedPath(t *testing.T) {
	// Exact-arithmetic setup: quick prompts embed to (3,4)/5, giving a
	// cosine of exactly 3/5 against the (1,0) image vector. With the
	// threshold at 0.6 the comparison sits exactly on the boundary, which
	// must route to the detailed path.
	sims := bankSims(0.25, 0.25, 0.25, 0.25, 0.25, 0.1)
	embedder := &stubEmbedder{sims: sims}
	cfg := Config{Calibration: Calibration{QuickThreshold: 0.6, QuickFloorSim: 0.5}}
	scorer := newTestScorer(t, embedder, cfg)
	scorer.quickVecs = [][]float32{{3, 4}, {3, 4}}

	ev, err := scorer.Evaluate(context.Background(), "boundary.jpg", CategoryOther)
	require.NoError(t, err)
	assert.Equal(t, "stub-clip-detailed", ev.Method)
	assert.Equal(t, 0.6, ev.Breakdown.UniversalRaw)
}

func TestEvaluateDetailed(t *testing.T) {
	// All axes at 0.28, negative at 0.25: weighted = 0.28, base =
	// ((0.28-0.26)/(0.30-0.26))*15+80 = 87.5, penalty = 0.6, final 86.9.
	embedder := &stubEmbedder{sims: bankSims(0.28, 0.28, 0.28, 0.28, 0.28, 0.25)}
	scorer := newTestScorer(t, embedder, Config{})

	ev, err := scorer.Evaluate(context.Background(), "great.jpg", CategorySunset)
	require.NoError(t, err)

	assert.InDelta(t, 86.9, ev.Score, 0.05)
	assert.Equal(t, TierExcellent, ev.Breakdown.Tier)
	assert.InDelta(t, 0.28, ev.Breakdown.WeightedRaw, 1e-4)
	assert.InDelta(t, 0.6, ev.Breakdown.NegativePenalty, 0.01)
	assert.InDelta(t, 0.28, ev.Breakdown.TechnicalRaw, 1e-4)
	assert.InDelta(t, 0.28, ev.Breakdown.CompositionRaw, 1e-4)
	assert.InDelta(t, 0.28, ev.Breakdown.LightingRaw, 1e-4)
	assert.InDelta(t, 0.28, ev.Breakdown.CategoryRaw, 1e-4)
	assert.InDelta(t, 0.25, ev.Breakdown.NegativeRaw, 1e-4)
	assert.Equal(t, "stub-clip-detailed", ev.Method)
}

func TestEvaluatePoorTier(t *testing.T) {
	// weighted = 0.20 → ((0.20-0.16)/(0.23-0.16))*25+40 ≈ 54.3
	embedder := &stubEmbedder{sims: bankSims(0.20, 0.20, 0.20, 0.20, 0.20, 0.1)}
	scorer := newTestScorer(t, embedder, Config{})

	ev, err := scorer.Evaluate(context.Background(), "meh.jpg", CategoryNight)
	require.NoError(t, err)
	assert.InDelta(t, 54.3, ev.Score, 0.05)
	assert.Equal(t, TierPoor, ev.Breakdown.Tier)
	assert.Zero(t, ev.Breakdown.NegativePenalty)
}

func TestEvaluateScoreStaysInRange(t *testing.T) {
	cases := []struct {
		name string
		sims map[string]float64
		lo   float64
		hi   float64
	}{
		{"quick floor", bankSims(0.01, 0.2, 0.2, 0.2, 0.2, 0.1), 20, 40},
		{"quick mid", bankSims(0.18, 0.2, 0.2, 0.2, 0.2, 0.1), 20, 40},
		{"detailed low", bankSims(0.21, 0.10, 0.10, 0.10, 0.10, 0.35), 30, 98},
		{"detailed high", bankSims(0.40, 0.40, 0.40, 0.40, 0.40, 0.05), 30, 98},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scorer := newTestScorer(t, &stubEmbedder{sims: tc.sims}, Config{})
			ev, err := scorer.Evaluate(context.Background(), "x.jpg", CategoryOther)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, ev.Score, tc.lo)
			assert.LessOrEqual(t, ev.Score, tc.hi)
		})
	}
}

func TestEvaluateUnknownCategoryFallsBackToOther(t *testing.T) {
	sims := bankSims(0.25, 0.25, 0.25, 0.25, 0.25, 0.1)
	// Make the "other" group distinguishable from every named category.
	bank := DefaultPromptBank()
	for _, p := range bank.Category[CategoryOther] {
		sims[p] = 0.31
	}
	scorer := newTestScorer(t, &stubEmbedder{sims: sims}, Config{})

	ev, err := scorer.Evaluate(context.Background(), "x.jpg", Category("abstract"))
	require.NoError(t, err)
	assert.InDelta(t, 0.31, ev.Breakdown.CategoryRaw, 1e-4)
}

func TestEvaluateDeterministic(t *testing.T) {
	scorer := newTestScorer(t, &stubEmbedder{sims: bankSims(0.24, 0.25, 0.26, 0.23, 0.27, 0.2)}, Config{})

	first, err := scorer.Evaluate(context.Background(), "same.jpg", CategoryNature)
	require.NoError(t, err)
	second, err := scorer.Evaluate(context.Background(), "same.jpg", CategoryNature)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluateImageDecodeError(t *testing.T) {
	embedder := &stubEmbedder{
		sims:     bankSims(0.25, 0.25, 0.25, 0.25, 0.25, 0.1),
		imageErr: fmt.Errorf("%w: broken file", ErrImageDecode),
	}
	scorer := newTestScorer(t, embedder, Config{})

	_, err := scorer.Evaluate(context.Background(), "broken.jpg", CategoryOther)
	require.ErrorIs(t, err, ErrImageDecode)
}

func TestNewScorerRequiresEmbedder(t *testing.T) {
	_, err := NewScorer(context.Background(), nil, Config{}, nil)
	require.Error(t, err)
}

func TestNewScorerRejectsBadWeights(t *testing.T) {
	cfg := Config{Weights: Weights{Universal: 0.5, Technical: 0.3}}
	_, err := NewScorer(context.Background(), &stubEmbedder{sims: map[string]float64{}}, cfg, nil)
	require.Error(t, err)
}
