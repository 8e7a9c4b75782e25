package photoscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
	}{
		{"landscape", CategoryLandscape},
		{"Landscape", CategoryLandscape},
		{"  SUNSET  ", CategorySunset},
		{"ｎｉｇｈｔ", CategoryNight}, // full-width input normalizes via NFKC
		{"other", CategoryOther},
		{"abstract", CategoryOther},
		{"", CategoryOther},
		{"portrait", CategoryOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseCategory(tc.in), "input %q", tc.in)
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Weights.Validate())
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-12)
}

func TestWeightsValidateRejectsBadSum(t *testing.T) {
	w := Weights{Universal: 0.5, Technical: 0.6}
	require.Error(t, w.Validate())
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, 77, cfg.Embedder.MaxSeqLen)
	assert.Equal(t, 224, cfg.Embedder.ImageSize)
	assert.Equal(t, "clip-vit-b32", cfg.Embedder.ModelID)
	assert.Equal(t, 0.20, cfg.Calibration.QuickThreshold)
	assert.Equal(t, 0.10, cfg.Calibration.QuickFloorSim)
	assert.Equal(t, 0.16, cfg.Calibration.MinSim)
	assert.Equal(t, 0.23, cfg.Calibration.AvgSim)
	assert.Equal(t, 0.26, cfg.Calibration.GoodSim)
	assert.Equal(t, 0.30, cfg.Calibration.ExcellentSim)
	assert.Equal(t, 0.22, cfg.Calibration.NegativeThreshold)
	assert.Equal(t, 20.0, cfg.Calibration.NegativeGain)
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaultsKeepsOverrides(t *testing.T) {
	cfg := Config{Calibration: Calibration{AvgSim: 0.24}}
	cfg.ApplyDefaults()
	assert.Equal(t, 0.24, cfg.Calibration.AvgSim)
	assert.Equal(t, 0.16, cfg.Calibration.MinSim)
}

func TestCalibrationValidateRejectsBadOrdering(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cal := cfg.Calibration
	cal.GoodSim = cal.AvgSim
	require.Error(t, cal.Validate())

	cal = cfg.Calibration
	cal.QuickFloorSim = cal.QuickThreshold
	require.Error(t, cal.Validate())

	cal = cfg.Calibration
	cal.NegativeGain = -1
	require.Error(t, cal.Validate())
}

func TestConfigClone(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	clone := cfg.Clone()
	clone.Calibration.AvgSim = 0.5
	assert.Equal(t, 0.23, cfg.Calibration.AvgSim)
}
