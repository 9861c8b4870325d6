package blueprint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when a document names a type outside the
// variant set.
var ErrUnknownKind = errors.New("unknown blueprint type")

type wireDocument struct {
	Blueprints []json.RawMessage `json:"blueprints"`
}

type wireHeader struct {
	Type Kind `json:"type"`
}

// MarshalBlueprint encodes bp as a JSON object carrying a "type"
// discriminator next to the variant's fields. Keys are sorted.
func MarshalBlueprint(bp Blueprint) ([]byte, error) {
	body, err := json.Marshal(bp)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", bp.Kind(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", bp.Kind(), err)
	}
	kind, err := json.Marshal(bp.Kind())
	if err != nil {
		return nil, err
	}
	fields["type"] = kind
	return json.Marshal(fields)
}

// UnmarshalBlueprint decodes one object written by MarshalBlueprint and
// validates the result.
func UnmarshalBlueprint(data []byte) (Blueprint, error) {
	var h wireHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode blueprint: %w", err)
	}
	bp, err := newOfKind(h.Type)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, bp); err != nil {
		return nil, fmt.Errorf("decode %s: %w", h.Type, err)
	}
	if err := Validate(bp); err != nil {
		return nil, err
	}
	return bp, nil
}

// MarshalDocument encodes bps as {"blueprints": [...]} with two-space
// indentation, in the given order.
func MarshalDocument(bps []Blueprint) ([]byte, error) {
	doc := wireDocument{Blueprints: make([]json.RawMessage, 0, len(bps))}
	for _, bp := range bps {
		raw, err := MarshalBlueprint(bp)
		if err != nil {
			return nil, err
		}
		doc.Blueprints = append(doc.Blueprints, raw)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalDocument decodes a document written by MarshalDocument. Every
// entry is validated and paths must be unique.
func UnmarshalDocument(data []byte) ([]Blueprint, error) {
	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	out := make([]Blueprint, 0, len(doc.Blueprints))
	seen := make(map[string]int, len(doc.Blueprints))
	for i, raw := range doc.Blueprints {
		bp, err := UnmarshalBlueprint(raw)
		if err != nil {
			return nil, fmt.Errorf("blueprint %d: %w", i, err)
		}
		p := bp.Header().Path
		if j, dup := seen[p]; dup {
			return nil, fmt.Errorf("blueprint %d: duplicate path %q (first at %d)", i, p, j)
		}
		seen[p] = i
		out = append(out, bp)
	}
	return out, nil
}

func newOfKind(k Kind) (Blueprint, error) {
	switch k {
	case KindGroup:
		return &Group{}, nil
	case KindGeom:
		return &Geom{}, nil
	case KindMesh:
		return &Mesh{}, nil
	case KindCamera:
		return &Camera{}, nil
	case KindRobot:
		return &Robot{}, nil
	case KindGripper:
		return &Gripper{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
}
