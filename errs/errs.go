// Package errs holds the error conditions shared by the dithering packages.
// Callers wrap them with context and match with errors.Is.
package errs

import "errors"

var (
	// ErrUnknownAlgorithm is returned when a kernel, quantizer or grayscale
	// policy name is not in the catalog. No default is substituted.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrInvalidInput is returned for precondition violations: empty
	// palettes, buffers whose length does not match their dimensions,
	// out-of-range palette indices and malformed kernels.
	ErrInvalidInput = errors.New("invalid input")
)
