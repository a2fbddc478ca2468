package services

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// decodeChecklist tolerates both native JSONB objects and legacy rows where
// the checklist landed as a JSON-encoded string. Anything unparseable
// degrades to an empty checklist instead of propagating an error.
func decodeChecklist(raw datatypes.JSON) map[string]interface{} {
	if len(raw) == 0 {
		return map[string]interface{}{}
	}

	items := map[string]interface{}{}
	if err := json.Unmarshal(raw, &items); err == nil {
		if items == nil {
			return map[string]interface{}{}
		}
		return items
	}

	// Double-encoded variant: the column holds a JSON string containing JSON.
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		items = map[string]interface{}{}
		if err := json.Unmarshal([]byte(inner), &items); err == nil && items != nil {
			return items
		}
	}

	return map[string]interface{}{}
}

// encodeChecklist marshals a checklist map for storage; nil becomes an
// empty object so the column never holds SQL NULL for a supplied field.
func encodeChecklist(items map[string]interface{}) datatypes.JSON {
	if items == nil {
		items = map[string]interface{}{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(data)
}

// isDefectSelected applies the strict truthiness rule for checklist values:
// only bool true, the literal string "true", and the number 1 count.
// Anything else (including "yes", "1", 2, objects) is rejected so malformed
// data never inflates defect counts.
func isDefectSelected(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	case float64:
		return val == 1
	case int:
		return val == 1
	default:
		return false
	}
}
