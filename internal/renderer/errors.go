package renderer

import (
	"errors"
	"fmt"
)

// NodeError codes.
const (
	CodeUnsupportedVariant   = "UNSUPPORTED_VARIANT"
	CodeInvalidGeometry      = "INVALID_GEOMETRY"
	CodeAttachmentUnresolved = "ATTACHMENT_UNRESOLVED"
	CodeNotFound             = "NOT_FOUND"
	CodeNoEndEffector        = "NO_END_EFFECTOR"
	CodeBackend              = "BACKEND_FAILURE"
)

// NodeError reports a failure to build or address the node at Path.
type NodeError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *NodeError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err carries a *NodeError with the given code.
func IsCode(err error, code string) bool {
	var ne *NodeError
	return errors.As(err, &ne) && ne.Code == code
}

func notFound(path string) *NodeError {
	return &NodeError{Code: CodeNotFound, Path: path, Message: "no render node"}
}
