package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/kinematics"
)

// ErrCodeAttachment marks a robot attachment that names no gripper.
const ErrCodeAttachment = "E102"

// ValidationIssue is one problem found in a document.
type ValidationIssue struct {
	Document string `json:"document"`
	Path     string `json:"path,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <doc.json>...",
		Short: "Check scene documents without rendering them",
		Long: `Check scene documents without rendering them.

Every blueprint is decoded and validated, robot attachments must name a
gripper in the same document, and robot and gripper descriptions are
looked up in the preset directory. A missing description is a warning:
the renderer falls back to a generic arm.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, docs []string, cmd *cobra.Command) error {
	e, err := newEnv(opts, cmd)
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: true}
	for _, doc := range docs {
		errs, warns := e.validateDocument(doc)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warns...)
	}
	result.Valid = len(result.Errors) == 0

	if e.out.IsJSON() {
		if err := e.out.Success(result, ""); err != nil {
			return err
		}
	} else {
		writeValidationText(e.out, result, len(docs))
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func (e *env) validateDocument(doc string) (errs, warns []ValidationIssue) {
	issue := func(path, code, msg string) ValidationIssue {
		return ValidationIssue{Document: doc, Path: path, Code: code, Message: msg}
	}

	data, err := os.ReadFile(doc)
	if err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return []ValidationIssue{issue("", code, err.Error())}, nil
	}
	bps, err := blueprint.UnmarshalDocument(data)
	if err != nil {
		return []ValidationIssue{issue("", ErrCodeDocument, err.Error())}, nil
	}
	e.out.VerboseLog("%s: %d blueprint(s)", doc, len(bps))

	kinds := make(map[string]blueprint.Kind, len(bps))
	for _, bp := range bps {
		kinds[bp.Header().Path] = bp.Kind()
	}

	for _, bp := range bps {
		path := bp.Header().Path
		var model blueprint.Model
		switch b := bp.(type) {
		case *blueprint.Robot:
			model = b.Model
			if b.Attachment != nil && kinds[b.Attachment.GripperPath] != blueprint.KindGripper {
				errs = append(errs, issue(path, ErrCodeAttachment,
					fmt.Sprintf("attached gripper %s is not a gripper in this document", b.Attachment.GripperPath)))
			}
		case *blueprint.Gripper:
			model = b.Model
		default:
			continue
		}
		if msg := e.checkDescription(model); msg != "" {
			warns = append(warns, issue(path, ErrCodePreset, msg))
		}
	}
	return errs, warns
}

// checkDescription returns a message when neither the qualified nor the
// base description name resolves.
func (e *env) checkDescription(m blueprint.Model) string {
	names := []string{m.QualifiedName()}
	if m.VariantName != "" {
		names = append(names, m.DescriptionName)
	}
	for _, name := range names {
		_, err := e.presets.Description(name)
		if err == nil {
			return ""
		}
		if !errors.Is(err, kinematics.ErrUnknownDescription) {
			return fmt.Sprintf("description %s: %v", name, err)
		}
	}
	return fmt.Sprintf("no description named %s", strings.Join(names, " or "))
}

func writeValidationText(out *OutputFormatter, result ValidationResult, docs int) {
	for _, w := range result.Warnings {
		fmt.Fprintf(out.Writer, "! %s %s [%s]: %s\n", w.Document, w.Path, w.Code, w.Message)
	}
	if result.Valid {
		fmt.Fprintf(out.Writer, "✓ %d document(s) valid\n", docs)
		return
	}
	fmt.Fprintf(out.Writer, "✗ Validation failed with %d error(s):\n", len(result.Errors))
	for _, e := range result.Errors {
		loc := e.Document
		if e.Path != "" {
			loc += " " + e.Path
		}
		fmt.Fprintf(out.Writer, "  %s [%s]: %s\n", loc, e.Code, e.Message)
	}
}
