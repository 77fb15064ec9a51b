package core

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// emptyDocumentJSON is the stored form of a room that was never written.
var emptyDocumentJSON = []byte(`{"calendar":{},"vision":[]}`)

// ApplyWrite computes the document a store must hold after a Write.
// With merge the payload is applied as a JSON Merge Patch: objects merge
// recursively, arrays are replaced and null removes a member.
func ApplyWrite(current []byte, exists bool, payload []byte, opts WriteOptions) ([]byte, error) {
	if !json.Valid(payload) {
		return nil, fmt.Errorf("write payload is not valid JSON")
	}
	if !opts.Merge {
		return payload, nil
	}
	base := current
	if !exists || len(base) == 0 {
		base = []byte(`{}`)
	}
	merged, err := jsonpatch.MergePatch(base, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to merge document: %w", err)
	}
	return merged, nil
}

// ApplyPatch applies RFC 6902 ops to the stored document. The calendar and
// vision members are materialized first so path writes against a fresh or
// partial room document address valid parents.
func ApplyPatch(current []byte, exists bool, ops []byte) ([]byte, error) {
	patch, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return nil, fmt.Errorf("invalid json patch: %w", err)
	}

	base, err := skeleton(current, exists)
	if err != nil {
		return nil, err
	}

	out, err := patch.Apply(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return out, nil
}

func skeleton(current []byte, exists bool) ([]byte, error) {
	if !exists || len(current) == 0 {
		return emptyDocumentJSON, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(current, &payload); err != nil {
		return nil, fmt.Errorf("stored document is not a JSON object: %w", err)
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	changed := false
	if _, ok := payload["calendar"].(map[string]any); !ok {
		payload["calendar"] = map[string]any{}
		changed = true
	}
	if _, ok := payload["vision"].([]any); !ok {
		payload["vision"] = []any{}
		changed = true
	}
	if !changed {
		return current, nil
	}
	return json.Marshal(payload)
}
