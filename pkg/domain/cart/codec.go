package cart

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// recordSchemaJSON describes the persisted cart record: a JSON array of
// {id, qty} objects. Anything else reads as malformed.
const recordSchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "qty"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "qty": {"type": "integer", "minimum": 1}
    },
    "additionalProperties": false
  }
}`

var recordSchemaLoader = gojsonschema.NewStringLoader(recordSchemaJSON)

// EncodeRecord serializes items into the persisted record form. A nil list
// encodes as an empty array, never as JSON null.
func EncodeRecord(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart record: %w", err)
	}
	return data, nil
}

// DecodeRecord parses a persisted blob back into an item list. An empty blob
// decodes as an empty cart. A blob that is not valid JSON or does not match
// the record schema returns ErrMalformedRecord; callers on the load path
// treat that as an empty cart.
func DecodeRecord(blob []byte) ([]Item, error) {
	if len(blob) == 0 {
		return []Item{}, nil
	}

	result, err := gojsonschema.Validate(recordSchemaLoader, gojsonschema.NewBytesLoader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrMalformedRecord, result.Errors()[0])
	}

	var items []Item
	if err := json.Unmarshal(blob, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}
