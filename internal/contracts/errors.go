package contracts

import "errors"

// Error taxonomy shared by every quant package
// ⭐ SSOT: 호출자는 errors.Is 로만 구분
var (
	// ErrInsufficientData means fewer than 2 aligned rows or assets were supplied
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateInput means a zero-variance series; callers receive zero metrics
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrNonConvergence means the numerical solver did not converge
	ErrNonConvergence = errors.New("optimization did not converge")

	// ErrBadWeights means a weight vector that cannot be normalized (zero sum, negative entry)
	ErrBadWeights = errors.New("bad weights")

	// ErrMisaligned means matrix dimensions or date indices do not line up
	ErrMisaligned = errors.New("misaligned input")
)

// BadWeights wraps ErrBadWeights so it also matches ErrInsufficientData
func BadWeights(reason string) error {
	return &badWeightsError{reason: reason}
}

type badWeightsError struct {
	reason string
}

func (e *badWeightsError) Error() string {
	return ErrBadWeights.Error() + ": " + e.reason
}

// Is reports both ErrBadWeights and ErrInsufficientData, matching simulation semantics
func (e *badWeightsError) Is(target error) bool {
	return target == ErrBadWeights || target == ErrInsufficientData
}
