package calib

import "errors"

// Per-group error kinds. Only ErrMalformedInput hard-fails a group; the
// others are downgraded to flags on the result so the batch always runs to
// completion.
var (
	// ErrInsufficientData marks an all-zero or empty observed-power series:
	// thresholds are unidentifiable and none are asserted.
	ErrInsufficientData = errors.New("insufficient data to identify thresholds")
	// ErrUnderdetermined marks a constant spot-price series: infinitely many
	// threshold pairs fit equally well.
	ErrUnderdetermined = errors.New("constant price series, fit underdetermined")
	// ErrMalformedInput marks mismatched series lengths, missing capacity or
	// an invalid hypothesis.
	ErrMalformedInput = errors.New("malformed group input")
)
