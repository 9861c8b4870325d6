// Package blueprint defines the closed set of scene entity descriptions.
//
// A Blueprint is a serializable description of one entity: its kind, its
// hierarchical path, its pose relative to the implied parent and the
// attributes specific to its variant. Blueprints know nothing about render
// handles; the renderer package derives live nodes from them.
//
// # Variants
//
// The set is sealed: Group, Geom, Mesh, Camera, Robot and Gripper are the
// only implementations of the Blueprint interface (the interface carries an
// unexported method). Consumers dispatch with an exhaustive type switch.
//
// # Paths
//
// A path such as "/table/box_0001" is at the same time the identity of an
// entity, its position in the hierarchy (parent = everything before the last
// separator) and the node name used by the render backend. The hierarchy is
// implicit in the strings; an ancestor does not have to exist as an entity.
// IsPathOrDescendant is the one rule for "p is under root": equal, or root
// followed by a separator. "/foobar" is never under "/foo".
//
// # Mutation
//
// Blueprints are replaced, never edited in place. Apply returns a modified
// copy and Clone produces a deep copy, so values held by undo history are
// independent of live ones.
package blueprint
