package misp

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MarshalJSON makes every entity encode as its ToMap rendering, however deep
// it sits inside another document. Nested entities encode the same way as the
// standard library recurses into them.
func (e *Element) MarshalJSON() ([]byte, error) {
	m, err := e.ToMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// ToJSON serializes the element. Failures, including fields that hold values
// the encoder cannot represent, come back wrapped in ErrSerialization.
func (e *Element) ToJSON() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		if errors.Is(err, ErrSerialization) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}

// FromJSON decodes a JSON object and hydrates the element from it.
func (e *Element) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return e.FromMap(m)
}

// decodeMap decodes a JSON document that must be an object. Concrete types
// reuse it in their FromJSON overrides so envelope unwrapping still sees the
// raw map.
func decodeMap(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return m, nil
}
