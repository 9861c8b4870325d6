package renderer

import (
	"sync"

	"github.com/roach88/scenekit/internal/pose"
)

// PanelState is what the transform panel shows.
type PanelState struct {
	Path     string
	Position [3]float32
	EulerDeg [3]float32
	// Version increases on every Set.
	Version uint64
}

// Pose converts the panel fields back to a pose.
func (s PanelState) Pose() pose.Pose {
	return pose.Identity().WithPosition(s.Position).WithEulerDeg(s.EulerDeg)
}

// TransformPanel holds the position and euler-angle fields of the properties
// panel. Both fields change together under one lock, so a reader never sees
// the position of one pose with the angles of another.
type TransformPanel struct {
	mu    sync.RWMutex
	state PanelState
}

// Set shows p for path.
func (t *TransformPanel) Set(path string, p pose.Pose) {
	position, euler := p.Pos(), p.EulerDeg()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = PanelState{
		Path:     path,
		Position: position,
		EulerDeg: euler,
		Version:  t.state.Version + 1,
	}
}

// Get returns the current panel contents.
func (t *TransformPanel) Get() PanelState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}
