// Package session runs scene edits on a single goroutine.
//
// UI callbacks (node clicks, gizmo drags, button presses) can fire from any
// goroutine, but the controller and its render synchronizer are not safe for
// concurrent use. A Session queues each request as an Intent and applies
// them in order from Run:
//
//	s := session.New(ctrl)
//	go s.Run(ctx)
//	err := s.Call(ctx, session.UpdatePose("/table", p))
//
// Failed intents are logged and counted; the loop keeps going.
package session
