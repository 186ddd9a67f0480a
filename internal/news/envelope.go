package news

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Shape identifies which envelope a backend news payload used
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeArray is a top-level array
	ShapeArray
	// ShapeItems is {"items": [...]}
	ShapeItems
	// ShapeItemsData is {"items": {"data": [...]}}
	ShapeItemsData
	// ShapeData is {"data": [...]}
	ShapeData
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeItems:
		return "items"
	case ShapeItemsData:
		return "items.data"
	case ShapeData:
		return "data"
	default:
		return "unknown"
	}
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// DecodeEnvelope resolves the shapes a backend news endpoint may answer with.
// Unknown shapes yield no items and no error; malformed JSON is an error.
func DecodeEnvelope(data []byte) ([]Item, Shape, error) {
	var items []Item
	if isArray(data) {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, ShapeUnknown, fmt.Errorf("decode news array: %w", err)
		}
		return items, ShapeArray, nil
	}

	var envelope struct {
		Items json.RawMessage `json:"items"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, ShapeUnknown, fmt.Errorf("decode news envelope: %w", err)
	}

	var raw json.RawMessage
	shape := ShapeUnknown
	switch {
	case isArray(envelope.Items):
		raw, shape = envelope.Items, ShapeItems
	case len(envelope.Items) > 0:
		var nested struct {
			Data json.RawMessage `json:"data"`
		}
		if json.Unmarshal(envelope.Items, &nested) == nil && isArray(nested.Data) {
			raw, shape = nested.Data, ShapeItemsData
		}
	}
	if shape == ShapeUnknown && isArray(envelope.Data) {
		raw, shape = envelope.Data, ShapeData
	}
	if shape == ShapeUnknown {
		return nil, ShapeUnknown, nil
	}

	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ShapeUnknown, fmt.Errorf("decode news %s: %w", shape, err)
	}
	return items, shape, nil
}
