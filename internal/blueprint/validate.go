package blueprint

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// sceneValidate is the shared validator instance for blueprint types.
// Initialized in init() with the custom path rule and the per-variant
// struct-level checks.
var sceneValidate *validator.Validate

// geomArity is the accepted [min, max] length of Geom.Size per type.
var geomArity = map[GeomType][2]int{
	GeomBox:       {3, 3},
	GeomPlane:     {2, 3},
	GeomCylinder:  {2, 2},
	GeomCapsule:   {2, 2},
	GeomSphere:    {1, 1},
	GeomEllipsoid: {3, 3},
}

func init() {
	sceneValidate = validator.New(validator.WithRequiredStructEnabled())
	sceneValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = sceneValidate.RegisterValidation("scenepath", validateScenePath)
	sceneValidate.RegisterStructValidation(validateGeom, Geom{})
	sceneValidate.RegisterStructValidation(validateCamera, Camera{})
}

// validateScenePath accepts rooted paths already in canonical form.
func validateScenePath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return p != Separator && strings.HasPrefix(p, Separator) && CleanPath(p) == p
}

func validateGeom(sl validator.StructLevel) {
	g := sl.Current().Interface().(Geom)
	arity, ok := geomArity[g.GeomType]
	if !ok {
		// unknown types are reported by the oneof tag
		return
	}
	if n := len(g.Size); n < arity[0] || n > arity[1] {
		sl.ReportError(g.Size, "size", "Size", "sizearity", string(g.GeomType))
	}
}

func validateCamera(sl validator.StructLevel) {
	c := sl.Current().Interface().(Camera)
	if c.Intrinsics[0][0] <= 0 || c.Intrinsics[1][1] <= 0 {
		sl.ReportError(c.Intrinsics, "intrinsics", "Intrinsics", "focal", "")
	}
}

// ValidationError lists every rule a blueprint violates.
type ValidationError struct {
	Path   string
	Kind   Kind
	Fields []FieldViolation
}

// FieldViolation is one failed rule.
type FieldViolation struct {
	Field string
	Rule  string
	Param string
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		if f.Param != "" {
			parts[i] = fmt.Sprintf("%s (%s=%s)", f.Field, f.Rule, f.Param)
		} else {
			parts[i] = fmt.Sprintf("%s (%s)", f.Field, f.Rule)
		}
	}
	return fmt.Sprintf("invalid %s blueprint %q: %s", e.Kind, e.Path, strings.Join(parts, ", "))
}

// Validate checks bp against the structural rules of its variant.
func Validate(bp Blueprint) error {
	if bp == nil {
		return errors.New("nil blueprint")
	}
	err := sceneValidate.Struct(bp)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", bp.Kind(), err)
	}
	out := &ValidationError{Path: bp.Header().Path, Kind: bp.Kind()}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldViolation{
			Field: fieldPath(fe.Namespace()),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}

// fieldPath drops the variant name and the embedded Common from a
// validator namespace: "Geom.Common.path" reads "path".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return strings.TrimPrefix(rest, "Common.")
	}
	return ns
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
