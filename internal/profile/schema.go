package profile

import (
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// 档案文件的结构约束：阈值必须是正数，未知字段拒绝，
// 避免拼错 key 被静默忽略后线上跑在默认档上。
const profileSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "default": {"$ref": "#/$defs/thresholds"},
    "symbols": {
      "type": "object",
      "additionalProperties": {"$ref": "#/$defs/thresholds"}
    }
  },
  "$defs": {
    "thresholds": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "min_strength_pct": {"type": "number", "exclusiveMinimum": 0},
        "rsi_period": {"type": "integer", "minimum": 2},
        "rsi_floor": {"type": "number", "minimum": 0, "maximum": 100},
        "wick_body_ratio": {"type": "number", "exclusiveMinimum": 0},
        "volume_factor": {"type": "number", "exclusiveMinimum": 0}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func validateDocument(doc any) error {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("profiles.json", profileSchema)
	})
	if schemaErr != nil {
		return fmt.Errorf("compile schema: %w", schemaErr)
	}
	if doc == nil {
		return nil
	}
	return compiledSchema.Validate(doc)
}

// normalizeKeys 把 yaml 解码出的 map[any]any 转成 jsonschema 能遍历的
// map[string]any。
func normalizeKeys(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprintf("%v", k)
			}
			out[key] = normalizeKeys(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeKeys(item)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return val
	}
}
