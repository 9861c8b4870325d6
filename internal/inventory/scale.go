package inventory

import (
	"maps"
)

// DefaultScale converts centimetre-unit meshes to metres.
const DefaultScale float32 = 0.01

// ScaleOverrides holds per-asset unit scales for one editing session.
//
// Not safe for concurrent use; it belongs to the session state and is only
// touched from the dispatch loop.
type ScaleOverrides struct {
	def       float32
	overrides map[string]float32
}

// NewScaleOverrides returns overrides seeded from initial. A non-positive
// def falls back to DefaultScale.
func NewScaleOverrides(def float32, initial map[string]float32) *ScaleOverrides {
	if def <= 0 {
		def = DefaultScale
	}
	s := &ScaleOverrides{def: def, overrides: make(map[string]float32, len(initial))}
	for id, v := range initial {
		s.Set(id, v)
	}
	return s
}

// Lookup returns the scale for id, or the default when none was set.
func (s *ScaleOverrides) Lookup(id string) float32 {
	if v, ok := s.overrides[id]; ok {
		return v
	}
	return s.def
}

// Set records the scale for id. Non-positive values clear the override.
func (s *ScaleOverrides) Set(id string, scale float32) {
	if scale <= 0 {
		delete(s.overrides, id)
		return
	}
	s.overrides[id] = scale
}

// Default returns the scale used for assets without an override.
func (s *ScaleOverrides) Default() float32 {
	return s.def
}

// All returns a copy of the overrides.
func (s *ScaleOverrides) All() map[string]float32 {
	return maps.Clone(s.overrides)
}
