package adapter

import (
	"encoding/json"
	"fmt"
)

// ArgumentsError reports tool arguments that are not a JSON object.
type ArgumentsError struct {
	Err error
}

func (e *ArgumentsError) Error() string {
	return fmt.Sprintf("adapter: parse arguments: %v", e.Err)
}

func (e *ArgumentsError) Unwrap() error { return e.Err }

// DecodeArguments accepts tool arguments either as a map or as JSON text
// (string, []byte or json.RawMessage) and returns them as a map. Empty input
// and JSON null decode to an empty map. Other values are converted through
// their JSON encoding.
func DecodeArguments(v any) (map[string]any, error) {
	var data []byte
	switch a := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		if a == nil {
			return map[string]any{}, nil
		}
		return a, nil
	case string:
		data = []byte(a)
	case json.RawMessage:
		data = a
	case []byte:
		data = a
	default:
		b, err := json.Marshal(a)
		if err != nil {
			return nil, &ArgumentsError{Err: err}
		}
		data = b
	}

	if len(data) == 0 {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, &ArgumentsError{Err: err}
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
