// Package config loads editor settings and resolves named presets.
//
// Settings come from an optional YAML file decoded in strict mode; unset
// fields keep their defaults.
//
// Presets are small documents (robot, gripper, camera, calibration and
// kinematic description) stored as <name>.cue, <name>.yaml, <name>.yml or
// <name>.json in a presets directory. Each typed loader unifies the document
// with a definition from the embedded schema.cue, so a preset with a missing
// or mistyped field is rejected with its source position before any scene
// entity is built from it. Definitions are open: presets may carry keys the
// editor does not read.
package config
