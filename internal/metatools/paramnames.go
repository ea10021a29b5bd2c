package metatools

import (
	"bytes"
	"encoding/json"
)

// parameterNames returns the object.properties keys of schema, in
// declaration order (spec.md §4.7 "Parameter-name extraction"). Order
// matters, so this walks the raw token stream rather than unmarshalling
// into a map[string]any, which Go's JSON decoder does not order.
func parameterNames(schema json.RawMessage) []string {
	if len(schema) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(schema))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := keyTok.(string)
		if key == "properties" {
			return objectKeysInOrder(dec)
		}
		if err := skipJSONValue(dec); err != nil {
			return nil
		}
	}
	return nil
}

// objectKeysInOrder assumes dec is positioned right before a JSON value and,
// if that value is an object, returns its top-level keys in encounter order.
func objectKeysInOrder(dec *json.Decoder) []string {
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	d, ok := tok.(json.Delim)
	if !ok || d != '{' {
		return nil
	}

	var names []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return names
		}
		key, _ := keyTok.(string)
		names = append(names, key)
		if err := skipJSONValue(dec); err != nil {
			return names
		}
	}
	dec.Token() // consume closing '}'
	return names
}

// skipJSONValue consumes one complete JSON value (scalar, object, or array)
// without interpreting it, leaving dec positioned after it.
func skipJSONValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		if dd, ok := t.(json.Delim); ok {
			switch dd {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
