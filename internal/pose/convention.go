package pose

import "cogentcore.org/core/math32"

// WXYZToXYZW reorders a quaternion from (w, x, y, z) to (x, y, z, w).
func WXYZToXYZW(q [4]float32) [4]float32 {
	return [4]float32{q[1], q[2], q[3], q[0]}
}

// XYZWToWXYZ reorders a quaternion from (x, y, z, w) to (w, x, y, z).
func XYZWToWXYZ(q [4]float32) [4]float32 {
	return [4]float32{q[3], q[0], q[1], q[2]}
}

// IntrinsicsFromFovY builds a pinhole camera matrix with square pixels and
// the principal point in the image center. fovy is in radians.
func IntrinsicsFromFovY(fovy float32, width, height int) [3][3]float32 {
	f := (float32(height) / 2) / math32.Tan(fovy/2)
	return [3][3]float32{
		{f, 0, float32(width) / 2},
		{0, f, float32(height) / 2},
		{0, 0, 1},
	}
}

// HorizontalFov returns the horizontal field of view in radians for an image
// of the given width and focal length fx.
func HorizontalFov(fx float32, width int) float32 {
	return 2 * math32.Atan2(float32(width)/2, fx)
}
