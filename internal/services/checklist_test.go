package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestIsDefectSelected(t *testing.T) {
	selected := []interface{}{true, "true", float64(1), 1}
	for _, v := range selected {
		assert.True(t, isDefectSelected(v), "value %#v should count as selected", v)
	}

	notSelected := []interface{}{
		false, "false", "TRUE", "yes", "1", float64(0), 0, 2, nil,
		map[string]interface{}{"nested": true}, []interface{}{true},
	}
	for _, v := range notSelected {
		assert.False(t, isDefectSelected(v), "value %#v should not count as selected", v)
	}
}

func TestDecodeChecklist(t *testing.T) {
	t.Run("native object", func(t *testing.T) {
		m := decodeChecklist(datatypes.JSON(`{"brakes":true,"lights":false}`))
		assert.Equal(t, true, m["brakes"])
		assert.Equal(t, false, m["lights"])
	})

	t.Run("double-encoded string from legacy rows", func(t *testing.T) {
		m := decodeChecklist(datatypes.JSON(`"{\"brakes\":true}"`))
		assert.Equal(t, true, m["brakes"])
	})

	t.Run("empty and nil degrade to empty map", func(t *testing.T) {
		assert.Empty(t, decodeChecklist(nil))
		assert.Empty(t, decodeChecklist(datatypes.JSON(``)))
		assert.Empty(t, decodeChecklist(datatypes.JSON(`null`)))
	})

	t.Run("garbage degrades to empty map", func(t *testing.T) {
		assert.Empty(t, decodeChecklist(datatypes.JSON(`not json`)))
		assert.Empty(t, decodeChecklist(datatypes.JSON(`[1,2,3]`)))
	})
}

func TestEncodeChecklist(t *testing.T) {
	t.Run("nil becomes empty object", func(t *testing.T) {
		assert.Equal(t, `{}`, string(encodeChecklist(nil)))
	})

	t.Run("round trip", func(t *testing.T) {
		in := map[string]interface{}{"horn": true, "mirrors": "true"}
		out := decodeChecklist(encodeChecklist(in))
		assert.Equal(t, true, out["horn"])
		assert.Equal(t, "true", out["mirrors"])
	})
}
