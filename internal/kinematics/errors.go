package kinematics

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDescription is returned by a DescriptionSource for names it
	// does not know.
	ErrUnknownDescription = errors.New("unknown kinematic description")

	// ErrDimension is returned when a configuration has the wrong length.
	ErrDimension = errors.New("joint vector length does not match chain")
)

// ConvergenceError reports that Solve stopped before reaching the
// thresholds. The configuration returned alongside it is the best one seen.
type ConvergenceError struct {
	Iterations       int
	PositionError    float32
	OrientationError float32
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("ik did not converge after %d iterations (position error %.5f, orientation error %.5f)",
		e.Iterations, e.PositionError, e.OrientationError)
}

// IsConvergenceError reports whether err carries a *ConvergenceError.
func IsConvergenceError(err error) bool {
	var ce *ConvergenceError
	return errors.As(err, &ce)
}
