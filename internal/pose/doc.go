// Package pose provides the rigid-transform value shared by blueprints,
// render nodes and the kinematics solver.
//
// A Pose is a position plus a unit orientation quaternion. Poses are plain
// values: every operation returns a new Pose and never mutates its receiver,
// which is what lets blueprints carry a Pose without aliasing concerns when
// the document store snapshots them.
//
// Composition follows 4x4 matrix multiplication: a.Mul(b) is the transform
// that first applies b and then a, so walking a path from the root and
// multiplying left to right yields the pose of the leaf in the root frame.
//
// Quaternions are stored in math32's (x, y, z, w) layout. Render backends and
// blueprint documents use (w, x, y, z); WXYZToXYZW and XYZWToWXYZ convert
// between the two orderings without any arithmetic.
package pose
