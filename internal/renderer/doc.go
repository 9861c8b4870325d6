// Package renderer keeps a render backend in step with a scene document.
//
// A Synchronizer owns one render.Handle per blueprint path. It builds nodes
// through a closed switch over the blueprint variants, re-renders whole
// documents in two passes so robots can find the grippers attached to them,
// and mirrors the selected node into a transform panel and a selection
// gizmo.
//
// The synchronizer is not safe for concurrent use; callers serialise access
// (see package session). The TransformPanel is the exception: it may be read
// from any goroutine.
package renderer
