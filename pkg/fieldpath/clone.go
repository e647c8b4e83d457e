package fieldpath

import (
	"bytes"
	"reflect"

	"github.com/aretw0/shadow/pkg/core"
)

// Clone deep-copies a tree. Objects become map[string]any and slices become
// []any, so the copy only holds the shapes Get and Set walk.
func Clone(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return cloneMap(t)
	case core.Metadata:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case string, bool, int, int64, float64:
		return t
	case []byte:
		return bytes.Clone(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return v
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Clone(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Clone(iter.Value().Interface())
		}
		return out
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = Clone(e)
	}
	return out
}

// CloneMetadata deep-copies document metadata. A nil input yields an empty tree.
func CloneMetadata(m core.Metadata) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	return cloneMap(m)
}
