package config

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes carried by LoadError.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeLoadFailed  = "E004" // File read or parse failed
	ErrCodeNotFound    = "E005" // Preset or file not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeSchema      = "E201" // Preset violates its schema
	ErrCodeDecode      = "E202" // Preset could not be decoded
	ErrCodeSettings    = "E210" // Settings file invalid
)

// LoadError is returned for settings and preset failures.
type LoadError struct {
	Code    string
	Preset  string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Preset != "" {
		return fmt.Sprintf("%s: preset %q: %s", e.Code, e.Preset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// cueLoadError converts a CUE error to a LoadError carrying the position of
// the first underlying error.
func cueLoadError(code, preset string, err error) *LoadError {
	le := &LoadError{Code: code, Preset: preset, Message: err.Error(), Err: err}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return le
	}
	first := errs[0]
	le.Message = first.Error()
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
