// Package translator 把各观测点上报的原始告警翻译成三段式人话：
// 发生了什么 / 影响什么 / 建议做什么。
//
// 翻译是纯函数：同一条记录任何时候翻译结果都相同。details 的结构
// 完全由观测点自己决定，翻译器对每个字段都做防御式读取，任何畸形
// 输入都只会得到降级的（而非缺失的）翻译结果。
package translator

import (
	"observation-hub/internal/models"
)

// translateFunc 单个观测点的翻译函数。返回值中 Event 为空时由
// Translate 补上原始消息截断，Summary/Original 由 Translate 统一填充。
type translateFunc func(rec *models.AlertRecord) models.Translation

// translators 观测点 → 翻译函数。未登记的观测点走默认翻译。
var translators = map[string]translateFunc{
	"error_code":       translateErrorCode,
	"link_status":      translateLinkStatus,
	"port_speed":       translatePortSpeed,
	"port_fec":         translatePortFec,
	"port_traffic":     translatePortTraffic,
	"card_recovery":    translateCardRecovery,
	"card_info":        translateCardInfo,
	"pcie_bandwidth":   translatePcieBandwidth,
	"controller_state": translateControllerState,
	"disk_state":       translateDiskState,
	"alarm_type":       translateAlarmType,
	"memory_leak":      translateMemoryLeak,
	"cpu_usage":        translateCpuUsage,
	"cmd_response":     translateCmdResponse,
	"sig_monitor":      translateSigMonitor,
	"sensitive_info":   translateSensitiveInfo,
	"process_crash":    translateProcessCrash,
	"io_timeout":       translateIoTimeout,
}

// defaultMessageLimit 默认翻译对原始消息的截断长度
const defaultMessageLimit = 100

// Translate 翻译一条告警记录。总函数：任何输入都返回有效结果。
func Translate(rec *models.AlertRecord) models.Translation {
	if rec == nil {
		return models.Translation{}
	}

	var t models.Translation
	if fn, ok := translators[rec.ObserverName]; ok {
		t = fn(rec)
	}

	if t.Event == "" {
		t.Event = truncate(rec.Message, defaultMessageLimit)
	}
	t.Summary = t.Event
	t.Original = rec.Message
	if t.LogPath == "" {
		t.LogPath = detailString(rec.Details, "log_path")
	}
	return t
}

// truncate 按字符（而非字节）截断，带省略号
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
