package fs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Serializer converts between the on-disk format of a room file and the
// canonical JSON form of the room document.
type Serializer interface {
	// Decode converts file contents to JSON.
	Decode(data []byte) ([]byte, error)
	// Encode converts JSON to file contents.
	Encode(doc []byte) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers keyed by extension.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": JSONSerializer{},
		".yaml": YAMLSerializer{},
		".yml":  YAMLSerializer{},
	}
}

// --- JSON Serializer ---

// JSONSerializer stores room documents as indented JSON.
type JSONSerializer struct{}

func (JSONSerializer) Decode(data []byte) ([]byte, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid json")
	}
	var out bytes.Buffer
	if err := json.Compact(&out, data); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return out.Bytes(), nil
}

func (JSONSerializer) Encode(doc []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := json.Indent(&out, doc, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent json: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// --- YAML Serializer ---

// YAMLSerializer stores room documents as YAML, which is easier to edit by hand.
type YAMLSerializer struct{}

func (YAMLSerializer) Decode(data []byte) ([]byte, error) {
	var payload any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("yaml document is not representable as json: %w", err)
	}
	return out, nil
}

func (YAMLSerializer) Encode(doc []byte) ([]byte, error) {
	var payload any
	if err := json.Unmarshal(doc, &payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return yaml.Marshal(payload)
}
