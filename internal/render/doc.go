// Package render defines the 3D visualization backend capability consumed by
// the render synchronizer, and a headless in-memory implementation.
//
// A Backend creates named nodes and returns opaque Handles. Beyond the basic
// Handle operations, a node may expose optional capabilities that callers
// discover with a type assertion:
//
//	Colored      color + opacity
//	Boxed        box dimensions
//	Cylindrical  radius + height
//	Spherical    radius
//	Draggable    pose-update callbacks (transform controls)
//	Articulated  joint positions (robot models)
//
// Check Cylindrical before Spherical: a cylinder also reports a radius.
//
// The Memory backend keeps every node in a map keyed by name and lets tests
// and scripts simulate user input with Click and Drag. Creating a node whose
// name is already in use replaces the old node, as the interactive viewer
// does.
package render
