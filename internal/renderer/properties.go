package renderer

import (
	"image/color"

	"github.com/roach88/scenekit/internal/pose"
	"github.com/roach88/scenekit/internal/render"
)

// Properties are the editable fields of a selected node. A nil field is
// disabled in the properties panel.
type Properties struct {
	Path       string
	Pose       pose.Pose
	GlobalPose pose.Pose

	Color      *color.RGBA
	Opacity    *float32
	Dimensions *[3]float32
	Radius     *float32
	Height     *float32
	// Mass comes from the document, not the node; the controller fills it
	// in for geoms.
	Mass *float32
}

// Enabled lists the names of the fields that are set.
func (p Properties) Enabled() []string {
	var out []string
	if p.Color != nil {
		out = append(out, "color")
	}
	if p.Opacity != nil {
		out = append(out, "opacity")
	}
	if p.Dimensions != nil {
		out = append(out, "dimensions")
	}
	if p.Radius != nil {
		out = append(out, "radius")
	}
	if p.Height != nil {
		out = append(out, "height")
	}
	if p.Mass != nil {
		out = append(out, "mass")
	}
	return out
}

// readProperties fills the fields h exposes. Box dimensions take precedence over
// cylinder fields, which take precedence over a sphere radius.
func readProperties(h render.Handle, p *Properties) {
	if c, ok := h.(render.Colored); ok {
		col, opacity := c.Color()
		p.Color = &col
		p.Opacity = &opacity
	}
	if b, ok := h.(render.Boxed); ok {
		d := b.Dimensions()
		p.Dimensions = &d
	} else if c, ok := h.(render.Cylindrical); ok {
		r, ht := c.Radius(), c.Height()
		p.Radius = &r
		p.Height = &ht
	} else if s, ok := h.(render.Spherical); ok {
		r := s.Radius()
		p.Radius = &r
	}
}

// applyGeometry pushes the geometric fields of spec into h. It reports false
// when h cannot take them in place.
func applyGeometry(h render.Handle, spec render.NodeSpec) bool {
	switch spec.Kind {
	case render.KindBox:
		b, ok := h.(render.Boxed)
		if ok {
			b.SetDimensions(spec.Dimensions)
		}
		return ok
	case render.KindCylinder:
		c, ok := h.(render.Cylindrical)
		if ok {
			c.SetRadius(spec.Radius)
			c.SetHeight(spec.Height)
		}
		return ok
	case render.KindIcosphere:
		s, ok := h.(render.Spherical)
		if ok {
			s.SetRadius(spec.Radius)
		}
		return ok
	default:
		return false
	}
}
