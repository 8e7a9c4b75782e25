package photoscore

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Category identifies a photography genre with dedicated evaluation prompts.
type Category string

const (
	CategoryLandscape    Category = "landscape"
	CategoryCityscape    Category = "cityscape"
	CategoryArchitecture Category = "architecture"
	CategoryNature       Category = "nature"
	CategorySunset       Category = "sunset"
	CategoryNight        Category = "night"
	CategoryOther        Category = "other"
)

// Categories returns the supported categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryLandscape,
		CategoryCityscape,
		CategoryArchitecture,
		CategoryNature,
		CategorySunset,
		CategoryNight,
		CategoryOther,
	}
}

// ParseCategory maps an arbitrary category string onto the supported set.
// Unrecognized values fall back to CategoryOther instead of failing.
func ParseCategory(s string) Category {
	key := Category(strings.ToLower(normalizeText(s)))
	for _, c := range Categories() {
		if key == c {
			return c
		}
	}
	return CategoryOther
}

// normalizeText applies NFKC normalization and trims surrounding whitespace so
// category keys and prompt texts have a stable form for lookups and cache keys.
func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Tier labels the calibration band the weighted raw score fell into.
type Tier string

const (
	TierPoor      Tier = "poor"
	TierGood      Tier = "good"
	TierExcellent Tier = "excellent"
)

// Breakdown exposes the raw similarities and derived values behind a score.
// Detailed fields stay zero when the quick filter short-circuited.
type Breakdown struct {
	UniversalRaw    float64 `json:"universal_raw"`
	UniversalScaled float64 `json:"universal_scaled,omitempty"`
	TechnicalRaw    float64 `json:"technical_raw,omitempty"`
	CompositionRaw  float64 `json:"composition_raw,omitempty"`
	LightingRaw     float64 `json:"lighting_raw,omitempty"`
	CategoryRaw     float64 `json:"category_raw,omitempty"`
	NegativeRaw     float64 `json:"negative_raw,omitempty"`
	WeightedRaw     float64 `json:"weighted_raw,omitempty"`
	NegativePenalty float64 `json:"negative_penalty,omitempty"`
	Tier            Tier    `json:"mapping_tier,omitempty"`
	Note            string  `json:"note,omitempty"`
}

// Evaluation is the result of scoring a single image.
type Evaluation struct {
	Score     float64   `json:"aesthetic_score"`
	Breakdown Breakdown `json:"breakdown"`
	Method    string    `json:"evaluation_method"`
}

// EmbedderConfig wraps the configuration for the ORT embedder and cache.
type EmbedderConfig struct {
	OrtDLL         string `json:"ortDll"`
	TextModelPath  string `json:"textModelPath"`
	ImageModelPath string `json:"imageModelPath"`
	TokenizerPath  string `json:"tokenizerPath"`
	MaxSeqLen      int    `json:"maxSeqLen"`
	ImageSize      int    `json:"imageSize"`
	Device         string `json:"device"`
	CacheDir       string `json:"cacheDir"`
	ModelID        string `json:"modelId"`
}

// Weights control how much each evaluation axis contributes to the weighted
// raw score. They must sum to 1.
type Weights struct {
	Universal   float64 `json:"universal"`
	Technical   float64 `json:"technical"`
	Composition float64 `json:"composition"`
	Lighting    float64 `json:"lighting"`
	Category    float64 `json:"category"`
}

// Sum returns the total of all axis weights.
func (w Weights) Sum() float64 {
	return w.Universal + w.Technical + w.Composition + w.Lighting + w.Category
}

// Validate rejects weight sets that do not sum to 1.
func (w Weights) Validate() error {
	if math.Abs(w.Sum()-1) > 1e-9 {
		return fmt.Errorf("axis weights must sum to 1, got %.4f", w.Sum())
	}
	return nil
}

// Calibration holds the empirically tuned similarity breakpoints that remap
// raw CLIP similarities onto the 0-100 scale. The defaults come from observed
// score distributions; a config file may override them for recalibration.
type Calibration struct {
	QuickThreshold    float64 `json:"quickThreshold"`
	QuickFloorSim     float64 `json:"quickFloorSim"`
	MinSim            float64 `json:"minSim"`
	AvgSim            float64 `json:"avgSim"`
	GoodSim           float64 `json:"goodSim"`
	ExcellentSim      float64 `json:"excellentSim"`
	NegativeThreshold float64 `json:"negativeThreshold"`
	NegativeGain      float64 `json:"negativeGain"`
}

// Validate rejects breakpoint sets that are not strictly increasing.
func (c Calibration) Validate() error {
	if !(c.QuickFloorSim < c.QuickThreshold) {
		return fmt.Errorf("quick floor %.3f must be below quick threshold %.3f", c.QuickFloorSim, c.QuickThreshold)
	}
	if !(c.MinSim < c.AvgSim && c.AvgSim < c.GoodSim && c.GoodSim < c.ExcellentSim) {
		return fmt.Errorf("calibration breakpoints must be strictly increasing: %.3f %.3f %.3f %.3f",
			c.MinSim, c.AvgSim, c.GoodSim, c.ExcellentSim)
	}
	if c.NegativeGain < 0 {
		return fmt.Errorf("negative gain must not be negative, got %.3f", c.NegativeGain)
	}
	return nil
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Embedder    EmbedderConfig `json:"embedder"`
	Weights     Weights        `json:"weights"`
	Calibration Calibration    `json:"calibration"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with the built-in scoring constants.
func (c *Config) ApplyDefaults() {
	if c.Embedder.MaxSeqLen == 0 {
		c.Embedder.MaxSeqLen = 77
	}
	if c.Embedder.ImageSize == 0 {
		c.Embedder.ImageSize = 224
	}
	if c.Embedder.ModelID == "" {
		c.Embedder.ModelID = "clip-vit-b32"
	}
	if c.Weights.Sum() == 0 {
		c.Weights = Weights{
			Universal:   0.20,
			Technical:   0.25,
			Composition: 0.25,
			Lighting:    0.15,
			Category:    0.15,
		}
	}
	cal := &c.Calibration
	if cal.QuickThreshold == 0 {
		cal.QuickThreshold = 0.20
	}
	if cal.QuickFloorSim == 0 {
		cal.QuickFloorSim = 0.10
	}
	if cal.MinSim == 0 {
		cal.MinSim = 0.16
	}
	if cal.AvgSim == 0 {
		cal.AvgSim = 0.23
	}
	if cal.GoodSim == 0 {
		cal.GoodSim = 0.26
	}
	if cal.ExcellentSim == 0 {
		cal.ExcellentSim = 0.30
	}
	if cal.NegativeThreshold == 0 {
		cal.NegativeThreshold = 0.22
	}
	if cal.NegativeGain == 0 {
		cal.NegativeGain = 20
	}
}

// Validate checks the scoring parameters after defaults have been applied.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	return c.Calibration.Validate()
}
