// Package harness runs scripted editing sessions against an in-memory scene.
//
// A scenario builds a fresh controller, optionally loads a blueprint
// document, applies a list of steps through a session and then checks the
// final scene with assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: table_with_box
//	description: "Box parented to a raised table survives undo/redo"
//	presets: ../presets        # optional, for create_camera / create_robot
//	document: scene.json       # optional, loaded before the steps
//	steps:
//	  - op: create_group
//	    name: table
//	  - op: update_pose
//	    path: /table_0000
//	    position: [0, 0, 0.5]
//	  - op: create_box
//	    parent: /table_0000
//	    size: [1, 0.5, 0.25]
//	    rgba: [1, 0.5, 0, 1]
//	  - op: undo
//	  - op: redo
//	assertions:
//	  - type: paths_present
//	    paths: [/table_0000, /table_0000/box_0001]
//	  - type: history
//	    can_redo: false
//	    next_sequence: "0002"
//
// Unknown keys are rejected. A step with expect_error: true passes only
// when the operation fails; undo and redo fail when there is nothing to
// step to.
//
// # Assertion Types
//
//   - paths_present: every listed path is in the document
//   - paths_absent: no listed path is in the document
//   - node_count: number of rendered entity nodes
//   - history: can_undo, can_redo, past and next_sequence
//   - pose: document position and/or rotation of a path, within tolerance
//
// # Deterministic Testing
//
// Render node IDs come from a sequence generator and entity names from the
// document's sequence counter, so the exported JSON of a scenario is stable
// and can be compared with goldie (RunWithGolden).
package harness
