package models

// Severity 告警级别（与上游 agent 上报的 level 字段一致）
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// SeverityRank 返回告警级别的序号，用于比较"更严重"的一方。
// 未知级别返回 0，排在 info 之前（按最轻处理）。
func SeverityRank(s Severity) int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// WorstSeverity 返回两个级别中更严重的一个
func WorstSeverity(a, b Severity) Severity {
	if SeverityRank(b) > SeverityRank(a) {
		return b
	}
	return a
}

// AlertRecord 一条原始告警记录（由 agent 上报，对本服务只读）。
// Details 的结构完全由 ObserverName 决定，任何字段都可能缺失，
// 消费方必须防御式读取。
type AlertRecord struct {
	ID           int64          `json:"id"`
	ObserverName string         `json:"observer_name"`
	ArrayID      string         `json:"array_id"`
	ArrayName    string         `json:"array_name,omitempty"`
	Level        Severity       `json:"level"`
	Message      string         `json:"message"`
	Details      map[string]any `json:"details"`
	Timestamp    string         `json:"timestamp"` // ISO-8601
	IsAcked      bool           `json:"is_acked,omitempty"`
	TaskID       *int64         `json:"task_id,omitempty"`
}
