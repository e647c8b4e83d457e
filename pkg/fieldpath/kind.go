package fieldpath

import (
	"encoding/json"

	"github.com/aretw0/shadow/pkg/core"
)

// Kind classifies a tree value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindUnknown
)

var kindNames = [...]string{"null", "bool", "number", "string", "array", "object", "unknown"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// KindOf reports the variant of v.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any, core.Metadata:
		return KindObject
	}
	return KindUnknown
}
