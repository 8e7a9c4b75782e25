package photoscore

import "math"

// Output bands of the piecewise-linear calibration. The quick path bottoms
// out lower than the detailed path because detailed inputs already passed the
// stage-1 quality gate.
const (
	quickScoreFloor = 20.0
	quickScoreCeil  = 40.0

	detailedScoreFloor = 30.0
	detailedScoreCeil  = 98.0

	poorBandLow       = 40.0
	goodBandLow       = 65.0
	excellentBandLow  = 80.0
	excellentBandHigh = 95.0
)

// quickScale maps a failing stage-1 similarity from [QuickFloorSim,
// QuickThreshold] onto [20, 40]. The clamp keeps garbage inputs that score
// below the floor from dropping under 20.
func (c Calibration) quickScale(quick float64) float64 {
	scaled := (quick-c.QuickFloorSim)/(c.QuickThreshold-c.QuickFloorSim)*(quickScoreCeil-quickScoreFloor) + quickScoreFloor
	return clamp(scaled, quickScoreFloor, quickScoreCeil)
}

// calibrate remaps the weighted raw similarity onto the human scale using
// three linear segments. The segments share endpoints, so the mapping is
// continuous at AvgSim and GoodSim. Values above ExcellentSim extrapolate
// past 95 before the caller's final clamp.
func (c Calibration) calibrate(weighted float64) float64 {
	switch {
	case weighted < c.AvgSim:
		return (weighted-c.MinSim)/(c.AvgSim-c.MinSim)*(goodBandLow-poorBandLow) + poorBandLow
	case weighted < c.GoodSim:
		return (weighted-c.AvgSim)/(c.GoodSim-c.AvgSim)*(excellentBandLow-goodBandLow) + goodBandLow
	default:
		return (weighted-c.GoodSim)/(c.ExcellentSim-c.GoodSim)*(excellentBandHigh-excellentBandLow) + excellentBandLow
	}
}

// tier labels the calibration segment a weighted raw score fell into.
func (c Calibration) tier(weighted float64) Tier {
	switch {
	case weighted < c.AvgSim:
		return TierPoor
	case weighted < c.GoodSim:
		return TierGood
	default:
		return TierExcellent
	}
}

// negativePenalty is the one-sided contrastive correction: similarity to the
// negative prompts above the threshold subtracts from the score, never adds.
func (c Calibration) negativePenalty(negative float64) float64 {
	if negative <= c.NegativeThreshold {
		return 0
	}
	return (negative - c.NegativeThreshold) * c.NegativeGain
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
