package event

import (
	"encoding/json"
	"fmt"
)

// DecodePayload converts an event payload into T. In-process events already
// carry T; payloads read back from the dead-letter file or an external stream
// arrive as raw JSON or generic maps and are re-decoded.
func DecodePayload[T any](payload interface{}) (T, error) {
	var out T
	switch v := payload.(type) {
	case T:
		return v, nil
	case *T:
		if v == nil {
			return out, fmt.Errorf("decode payload: nil %T", v)
		}
		return *v, nil
	case json.RawMessage:
		return out, json.Unmarshal(v, &out)
	case []byte:
		return out, json.Unmarshal(v, &out)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("decode payload: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}
