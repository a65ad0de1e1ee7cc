package translator

import (
	"fmt"
	"sort"
)

// details 是 JSON 反序列化出来的 map[string]any，这里的取值函数
// 全部容忍键缺失和类型不符：取不到就给零值，绝不 panic。

func detailString(details map[string]any, key string) string {
	if details == nil {
		return ""
	}
	switch v := details[key].(type) {
	case string:
		return v
	case float64:
		return formatNumber(v)
	case int:
		return fmt.Sprintf("%d", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}

func detailNumber(details map[string]any, key string) (float64, bool) {
	if details == nil {
		return 0, false
	}
	switch v := details[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// detailList 取出 details[key] 中的 map 元素列表。
// 非列表、空列表、列表里混入的非 map 元素都被安静地忽略。
func detailList(details map[string]any, key string) []map[string]any {
	if details == nil {
		return nil
	}
	raw, ok := details[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func detailMap(details map[string]any, key string) map[string]any {
	if details == nil {
		return nil
	}
	m, _ := details[key].(map[string]any)
	return m
}

// sortedKeys map 的 key 按字典序。details 里的端口计数器之类是
// map，Go 的遍历顺序不稳定，取"第一个"之前必须排序。
func sortedKeys(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func entryString(m map[string]any, key string) string {
	return detailString(m, key)
}

// formatNumber JSON 数字统一是 float64，整数值不带小数输出
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
