package folding

import (
	"sort"

	"observation-hub/internal/models"
	"observation-hub/internal/translator"
)

// Identity 提取"同一问题"标识：同一观测点下，主体相同、状况相同的
// 告警应当折叠到一起（A 卡的故障绝不能和 B 卡的折在一起）。
// 没有专属规则的观测点返回 ok=false，由调用方退回消息骨架。
//
// 所有规则都只看 details 里第一条相关条目：一条记录可能批量带上
// 多个子事件，但归组按占主导的那个。
func Identity(rec *models.AlertRecord) (string, bool) {
	if rec == nil {
		return "", false
	}

	// alarm_type 不要求 details：details 缺失时标识还能从告警原文
	// 解析出来，nil 和空 map 必须归出同一个组
	if rec.ObserverName == "alarm_type" {
		ev := translator.FirstAlarmEvent(rec)
		if ev == nil {
			return "", false
		}
		subject := ev.ObjType
		if subject == "" {
			subject = ev.AlarmName
		}
		if subject == "" && ev.Action == "" {
			return "", false
		}
		return subject + "|" + ev.Action, true
	}

	if rec.Details == nil {
		return "", false
	}

	switch rec.ObserverName {
	case "card_info":
		first := firstEntry(rec.Details, "alerts")
		if first == nil {
			return "", false
		}
		return stringField(first, "card") + "|" + stringField(first, "board_id") + "|" + stringField(first, "field"), true

	case "error_code":
		if key := firstMapKey(rec.Details, "port_counters"); key != "" {
			return key, true
		}
		if key := firstMapKey(rec.Details, "pcie_errors"); key != "" {
			return key, true
		}
		return "", false

	case "link_status", "port_speed", "port_fec":
		first := firstEntry(rec.Details, "changes")
		if first == nil {
			return "", false
		}
		if port := stringField(first, "port"); port != "" {
			return port, true
		}
		return "", false

	case "controller_state", "disk_state":
		first := firstEntry(rec.Details, "changes")
		if first == nil {
			return "", false
		}
		if id := stringField(first, "id"); id != "" {
			return id, true
		}
		return "", false
	}

	return "", false
}

func firstEntry(details map[string]any, key string) map[string]any {
	raw, ok := details[key].([]any)
	if !ok {
		return nil
	}
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// firstMapKey map 型 payload 取字典序最小的 key，保证同样的 details
// 永远得到同一个标识（Go 的 map 遍历顺序不稳定）。
func firstMapKey(details map[string]any, key string) string {
	m, ok := details[key].(map[string]any)
	if !ok || len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}
