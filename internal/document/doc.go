// Package document holds the authoritative scene document: the mapping from
// path to blueprint plus linear undo/redo history.
//
// Every successful mutation (Add, Remove, Update) pushes a deep copy of the
// whole mapping onto the past stack and clears the future stack. Undo and
// Redo swap whole snapshots between the two stacks, so an undo followed by a
// redo restores exactly the state before the undo.
//
// The Store has no locks. It is owned by the session's single dispatch
// goroutine; see package session.
package document
