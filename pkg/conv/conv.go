// Package conv 提供类型转换、配置取值等工具，用于简化各模块中的重复逻辑。
package conv

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	}
	return 0, false
}

// ToInt64 将 any 转为 int64（YAML/JSON 解析出的数值类型不定）。
func ToInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case float64:
		return int64(val), true
	case float32:
		return int64(val), true
	}
	return 0, false
}

// ConfigGet 从配置 map 中取值，类型不匹配时返回默认值。
func ConfigGet[T any](config map[string]any, key string, def T) T {
	if config == nil {
		return def
	}
	if v, ok := config[key]; ok {
		if tv, ok := v.(T); ok {
			return tv
		}
	}
	return def
}

// ConfigGetInt64 从配置 map 中取整数值，兼容 YAML/JSON 的数值类型差异。
func ConfigGetInt64(config map[string]any, key string, def int64) int64 {
	if config == nil {
		return def
	}
	if v, ok := config[key]; ok {
		if n, ok := ToInt64(v); ok {
			return n
		}
	}
	return def
}

// SliceAnyToInt64 将 []any 转为 []int64，无法转换的元素跳过。
func SliceAnyToInt64(v any) []int64 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(raw))
	for _, e := range raw {
		if n, ok := ToInt64(e); ok {
			out = append(out, n)
		}
	}
	return out
}
