package photoscore

import "errors"

var (
	// ErrModelUnavailable indicates the embedding model could not be loaded
	// (missing weights, broken runtime). Fatal to scorer construction.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrImageDecode indicates the image file is missing, unreadable or
	// corrupt. Local to a single evaluation call.
	ErrImageDecode = errors.New("image decode failed")

	// ErrComputation indicates an unexpected failure during embedding or
	// similarity computation.
	ErrComputation = errors.New("similarity computation failed")
)
