package kinematics

import (
	"fmt"
	"slices"

	"cogentcore.org/core/math32"

	"github.com/roach88/scenekit/internal/pose"
)

const (
	// DefaultPositionThreshold is the IK stopping threshold in meters.
	DefaultPositionThreshold = 1e-4
	// DefaultOrientationThreshold is the IK stopping threshold in radians.
	DefaultOrientationThreshold = 1e-4
	// DefaultMaxIterations bounds each Solve call.
	DefaultMaxIterations = 100
	// DefaultDamping is the damped least squares lambda.
	DefaultDamping = 0.01
	// maxStep caps the joint update per iteration in radians.
	maxStep = 0.5
)

// Chain is a serial chain of revolute joints.
//
// Chain is immutable after construction and safe for concurrent use.
type Chain struct {
	desc    Description
	origins []pose.Pose
	axes    []math32.Vector3
	tool    pose.Pose
	initial []float32

	posTol  float32
	oriTol  float32
	maxIter int
	damping float32
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithThresholds sets the IK stopping thresholds.
func WithThresholds(position, orientation float32) ChainOption {
	return func(c *Chain) {
		c.posTol, c.oriTol = position, orientation
	}
}

// WithMaxIterations bounds the number of IK iterations per Solve.
func WithMaxIterations(n int) ChainOption {
	return func(c *Chain) {
		c.maxIter = n
	}
}

// WithDamping sets the damped least squares lambda.
func WithDamping(lambda float32) ChainOption {
	return func(c *Chain) {
		c.damping = lambda
	}
}

// WithInitial sets the starting configuration. It is ignored when its
// length differs from the joint count.
func WithInitial(q []float32) ChainOption {
	return func(c *Chain) {
		if len(q) == len(c.desc.Joints) {
			c.initial = slices.Clone(q)
		}
	}
}

// NewChain builds a chain from desc. tool is appended after the flange; use
// it for the gripper attachment offset.
func NewChain(desc Description, tool pose.Pose, opts ...ChainOption) (*Chain, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	c := &Chain{
		desc:    desc,
		origins: make([]pose.Pose, len(desc.Joints)),
		axes:    make([]math32.Vector3, len(desc.Joints)),
		tool:    desc.Flange.Pose().Mul(tool),
		initial: make([]float32, len(desc.Joints)),
		posTol:  DefaultPositionThreshold,
		oriTol:  DefaultOrientationThreshold,
		maxIter: DefaultMaxIterations,
		damping: DefaultDamping,
	}
	for i, j := range desc.Joints {
		c.origins[i] = j.Origin.Pose()
		c.axes[i] = math32.Vec3(j.Axis[0], j.Axis[1], j.Axis[2]).Normal()
		c.initial[i] = j.clamp(j.Home)
	}
	for _, opt := range opts {
		opt(c)
	}
	for i, j := range desc.Joints {
		c.initial[i] = j.clamp(c.initial[i])
	}
	return c, nil
}

// Name returns the description name.
func (c *Chain) Name() string { return c.desc.Name }

// DOF implements Solver.
func (c *Chain) DOF() int { return len(c.desc.Joints) }

// Initial implements Solver.
func (c *Chain) Initial() []float32 { return slices.Clone(c.initial) }

// EndEffectorPose implements Solver.
func (c *Chain) EndEffectorPose(q []float32) (pose.Pose, error) {
	if len(q) != c.DOF() {
		return pose.Identity(), fmt.Errorf("%w: got %d, want %d", ErrDimension, len(q), c.DOF())
	}
	ee, _ := c.forward(q)
	return ee, nil
}

// jointFrame is a joint axis and anchor point in the base frame.
type jointFrame struct {
	origin math32.Vector3
	axis   math32.Vector3
}

func (c *Chain) forward(q []float32) (pose.Pose, []jointFrame) {
	frames := make([]jointFrame, len(q))
	t := pose.Identity()
	for i := range q {
		t = t.Mul(c.origins[i])
		frames[i] = jointFrame{origin: t.Position, axis: t.Rotate(c.axes[i])}
		t = t.Mul(pose.Pose{Orientation: math32.NewQuatAxisAngle(c.axes[i], q[i])})
	}
	return t.Mul(c.tool), frames
}

// Solve implements Solver using damped least squares.
func (c *Chain) Solve(current []float32, target pose.Pose) ([]float32, error) {
	if len(current) != c.DOF() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(current), c.DOF())
	}
	q := make([]float32, len(current))
	for i, j := range c.desc.Joints {
		q[i] = j.clamp(current[i])
	}

	best := slices.Clone(q)
	bestPos, bestOri := math32.Inf(1), math32.Inf(1)

	for iter := 0; iter < c.maxIter; iter++ {
		ee, frames := c.forward(q)
		e := poseError(ee, target)
		posErr := math32.Vec3(e[0], e[1], e[2]).Length()
		oriErr := math32.Vec3(e[3], e[4], e[5]).Length()

		if posErr < c.posTol && oriErr < c.oriTol {
			return q, nil
		}
		if posErr+oriErr < bestPos+bestOri {
			copy(best, q)
			bestPos, bestOri = posErr, oriErr
		}

		dq, ok := c.step(ee, frames, e)
		if !ok {
			break
		}
		for i, j := range c.desc.Joints {
			q[i] = j.clamp(q[i] + min(max(dq[i], -maxStep), maxStep))
		}
	}

	return best, &ConvergenceError{
		Iterations:       c.maxIter,
		PositionError:    bestPos,
		OrientationError: bestOri,
	}
}

// step computes dq = J^T (J J^T + lambda^2 I)^-1 e.
func (c *Chain) step(ee pose.Pose, frames []jointFrame, e [6]float32) ([]float32, bool) {
	n := len(frames)
	jac := make([][6]float32, n)
	for i, f := range frames {
		lin := f.axis.Cross(ee.Position.Sub(f.origin))
		jac[i] = [6]float32{lin.X, lin.Y, lin.Z, f.axis.X, f.axis.Y, f.axis.Z}
	}

	var a [6][6]float32
	for r := 0; r < 6; r++ {
		for col := 0; col < 6; col++ {
			var sum float32
			for i := 0; i < n; i++ {
				sum += jac[i][r] * jac[i][col]
			}
			a[r][col] = sum
		}
		a[r][r] += c.damping * c.damping
	}

	y, ok := solve6(a, e)
	if !ok {
		return nil, false
	}
	dq := make([]float32, n)
	for i := 0; i < n; i++ {
		for r := 0; r < 6; r++ {
			dq[i] += jac[i][r] * y[r]
		}
	}
	return dq, true
}

// poseError returns the position error and the orientation error as a
// rotation vector, both expressed in the base frame.
func poseError(ee, target pose.Pose) [6]float32 {
	dp := target.Position.Sub(ee.Position)

	tq := target.Orientation
	if tq == (math32.Quat{}) {
		tq = math32.NewQuat(0, 0, 0, 1)
	}
	eq := ee.Orientation
	inv := eq.Inverse()
	qe := tq.Mul(inv)
	if qe.W < 0 {
		qe = math32.NewQuat(-qe.X, -qe.Y, -qe.Z, -qe.W)
	}
	v := math32.Vec3(qe.X, qe.Y, qe.Z)
	s := v.Length()
	var rot math32.Vector3
	if s > 1e-9 {
		angle := 2 * math32.Atan2(s, qe.W)
		rot = v.MulScalar(angle / s)
	}
	return [6]float32{dp.X, dp.Y, dp.Z, rot.X, rot.Y, rot.Z}
}

// solve6 solves a x = b by Gaussian elimination with partial pivoting.
func solve6(a [6][6]float32, b [6]float32) ([6]float32, bool) {
	for col := 0; col < 6; col++ {
		pivot := col
		for r := col + 1; r < 6; r++ {
			if math32.Abs(a[r][col]) > math32.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math32.Abs(a[pivot][col]) < 1e-12 {
			return [6]float32{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]
		for r := col + 1; r < 6; r++ {
			f := a[r][col] / a[col][col]
			for k := col; k < 6; k++ {
				a[r][k] -= f * a[col][k]
			}
			b[r] -= f * b[col]
		}
	}
	var x [6]float32
	for r := 5; r >= 0; r-- {
		sum := b[r]
		for k := r + 1; k < 6; k++ {
			sum -= a[r][k] * x[k]
		}
		x[r] = sum / a[r][r]
	}
	return x, true
}
