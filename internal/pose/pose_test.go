package pose

import (
	"encoding/json"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func rotZ(deg float32) Pose {
	return Pose{Orientation: math32.NewQuatAxisAngle(math32.Vec3(0, 0, 1), math32.DegToRad(deg))}
}

func TestZeroValueIsIdentity(t *testing.T) {
	var p Pose
	assert.True(t, p.IsIdentity())
	assert.Equal(t, [4]float32{1, 0, 0, 0}, p.WXYZ())

	moved := Pose{}.WithPosition([3]float32{1, 2, 3})
	assert.Equal(t, [3]float32{1, 2, 3}, Pose{}.Mul(moved).Pos())
}

func TestNew(t *testing.T) {
	p := New([3]float32{1, 2, 3}, [4]float32{1, 0, 0, 0})
	assert.Equal(t, [3]float32{1, 2, 3}, p.Pos())
	assert.Equal(t, [4]float32{1, 0, 0, 0}, p.WXYZ())
}

func TestWithXYZW(t *testing.T) {
	p := Identity().WithPosition([3]float32{1, 2, 3}).WithXYZW([4]float32{0, 0, 0, 1})
	assert.Equal(t, [3]float32{1, 2, 3}, p.Pos())
	assert.Equal(t, [4]float32{1, 0, 0, 0}, p.WXYZ())
}

func TestMulTranslatesInParentFrame(t *testing.T) {
	parent := rotZ(90).WithPosition([3]float32{1, 0, 0})
	child := Identity().WithPosition([3]float32{1, 0, 0})

	got := parent.Mul(child)

	assert.InDelta(t, 1, got.Position.X, tol)
	assert.InDelta(t, 1, got.Position.Y, tol)
	assert.InDelta(t, 0, got.Position.Z, tol)
	assert.InDelta(t, 90, got.EulerDeg()[2], 1e-3)
}

func TestComposeMatchesMatrixProduct(t *testing.T) {
	a := rotZ(30).WithPosition([3]float32{0.5, -1, 2})
	b := Identity().WithEulerDeg([3]float32{10, 20, 30}).WithPosition([3]float32{-0.2, 0.3, 0.1})

	got := Compose(a, b).Matrix()

	ma, mb := a.Matrix(), b.Matrix()
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var want float32
			for k := 0; k < 4; k++ {
				want += ma[r][k] * mb[k][c]
			}
			assert.InDelta(t, want, got[r][c], 1e-4, "m[%d][%d]", r, c)
		}
	}
}

func TestInverse(t *testing.T) {
	p := Identity().WithEulerDeg([3]float32{15, -40, 70}).WithPosition([3]float32{1, 2, 3})

	assert.True(t, p.Mul(p.Inverse()).ApproxEqual(Identity(), 1e-5))
	assert.True(t, p.Inverse().Mul(p).ApproxEqual(Identity(), 1e-5))
}

func TestMatrixRoundTrip(t *testing.T) {
	p := Identity().WithEulerDeg([3]float32{5, 45, -120}).WithPosition([3]float32{0.1, 0.2, 0.3})

	got := FromMatrix(p.Matrix())

	assert.True(t, got.ApproxEqual(p, 1e-5), "got %v want %v", got, p)
}

func TestFromFlatMatrix(t *testing.T) {
	p, err := FromFlatMatrix([]float32{
		1, 0, 0, 0.5,
		0, 1, 0, 0,
		0, 0, 1, 1,
		0, 0, 0, 1,
	})
	require.NoError(t, err)
	assert.Equal(t, [3]float32{0.5, 0, 1}, p.Pos())
	assert.True(t, p.ApproxEqual(Identity().WithPosition([3]float32{0.5, 0, 1}), tol))

	_, err = FromFlatMatrix([]float32{1, 2, 3})
	assert.Error(t, err)
}

func TestEulerRoundTrip(t *testing.T) {
	deg := [3]float32{10, 20, 30}
	got := Identity().WithEulerDeg(deg).EulerDeg()
	for i := range deg {
		assert.InDelta(t, deg[i], got[i], 1e-3)
	}
}

func TestApproxEqualTreatsNegatedQuaternionAsEqual(t *testing.T) {
	p := rotZ(45)
	q := p.Orientation
	neg := Pose{Orientation: math32.NewQuat(-q.X, -q.Y, -q.Z, -q.W)}

	assert.True(t, p.ApproxEqual(neg, tol))
	assert.False(t, p.ApproxEqual(rotZ(50), tol))
	assert.InDelta(t, math32.DegToRad(5), p.Angle(rotZ(50)), 1e-4)
}

func TestJSON(t *testing.T) {
	p := New([3]float32{1, 2, 3}, [4]float32{1, 0, 0, 0})

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"position":[1,2,3],"wxyz":[1,0,0,0]}`, string(data))

	var back Pose
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)
}

func TestJSONMissingOrientation(t *testing.T) {
	var p Pose
	require.NoError(t, json.Unmarshal([]byte(`{"position":[0,0,1]}`), &p))
	assert.Equal(t, [4]float32{1, 0, 0, 0}, p.WXYZ())
	assert.Equal(t, [3]float32{0, 0, 1}, p.Pos())
}
