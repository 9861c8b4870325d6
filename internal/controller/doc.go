// Package controller is the edit surface of a scene session.
//
// Each operation mutates the document store and then mirrors the change
// into the render synchronizer, in that order. Reads (selection, export,
// history) never push undo history.
package controller
