package photoscore

import (
	"fmt"
	"math"
)

// MeanSimilarity computes the cosine similarity between an image embedding and
// every row of a prompt group's embedding matrix and returns the arithmetic
// mean. Averaging over the group is what lets a handful of phrasings stand in
// for one semantic axis. Accumulation happens in float64.
func MeanSimilarity(image []float32, group [][]float32) (float64, error) {
	if len(image) == 0 {
		return 0, fmt.Errorf("%w: empty image embedding", ErrComputation)
	}
	if len(group) == 0 {
		return 0, fmt.Errorf("%w: empty prompt group", ErrComputation)
	}
	imageNorm := l2Norm(image)
	if imageNorm == 0 {
		return 0, fmt.Errorf("%w: zero-norm image embedding", ErrComputation)
	}
	var sum float64
	for i, row := range group {
		if len(row) != len(image) {
			return 0, fmt.Errorf("%w: dimension mismatch %d vs %d (row %d)", ErrComputation, len(image), len(row), i)
		}
		rowNorm := l2Norm(row)
		if rowNorm == 0 {
			return 0, fmt.Errorf("%w: zero-norm prompt embedding (row %d)", ErrComputation, i)
		}
		var dot float64
		for j := range image {
			dot += float64(image[j]) * float64(row[j])
		}
		sum += dot / (imageNorm * rowNorm)
	}
	return sum / float64(len(group)), nil
}

func l2Norm(v []float32) float64 {
	var sq float64
	for _, x := range v {
		f := float64(x)
		sq += f * f
	}
	return math.Sqrt(sq)
}
