package registry

import (
	"observation-hub/internal/models"
)

// ObserverGroup 观测点分组（端口级/卡件级/系统级）
type ObserverGroup struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var (
	GroupPort   = ObserverGroup{ID: "port", Label: "端口级"}
	GroupCard   = ObserverGroup{ID: "card", Label: "卡件级"}
	GroupSystem = ObserverGroup{ID: "system", Label: "系统级"}
)

// displayNames 观测点显示名。新增观测点不必登记：
// 未知 key 原样返回，不会报错。
var displayNames = map[string]string{
	"error_code":       "误码监测",
	"link_status":      "链路状态",
	"port_fec":         "FEC 状态",
	"port_speed":       "端口速率",
	"port_traffic":     "端口流量",
	"card_recovery":    "卡修复",
	"card_info":        "卡件信息",
	"pcie_bandwidth":   "PCIe 带宽",
	"controller_state": "控制器状态",
	"disk_state":       "磁盘状态",
	"alarm_type":       "告警事件",
	"memory_leak":      "内存监测",
	"cpu_usage":        "CPU 监测",
	"cmd_response":     "命令响应",
	"sig_monitor":      "SIG 信号",
	"sensitive_info":   "敏感信息",
	"process_crash":    "进程崩溃",
	"io_timeout":       "IO 超时",
}

// observerGroups 观测点 → 分组。未登记的观测点归入系统级。
var observerGroups = map[string]ObserverGroup{
	"error_code":       GroupPort,
	"link_status":      GroupPort,
	"port_fec":         GroupPort,
	"port_speed":       GroupPort,
	"port_traffic":     GroupPort,
	"card_recovery":    GroupCard,
	"card_info":        GroupCard,
	"pcie_bandwidth":   GroupCard,
	"controller_state": GroupCard,
	"disk_state":       GroupCard,
	"alarm_type":       GroupSystem,
	"memory_leak":      GroupSystem,
	"cpu_usage":        GroupSystem,
	"cmd_response":     GroupSystem,
	"sig_monitor":      GroupSystem,
	"sensitive_info":   GroupSystem,
	"process_crash":    GroupSystem,
	"io_timeout":       GroupSystem,
}

// escalateObservers 始终升级的观测点：这类来源即便单条只是 error
// 也在关键路径上（进程崩溃、IO 超时），通知消费方需要立即提示。
var escalateObservers = map[string]bool{
	"process_crash": true,
	"io_timeout":    true,
}

// DisplayName 返回观测点的显示名，未知 key 原样返回
func DisplayName(key string) string {
	if name, ok := displayNames[key]; ok {
		return name
	}
	return key
}

// Group 返回观测点所属分组，未知 key 归入系统级
func Group(key string) ObserverGroup {
	if g, ok := observerGroups[key]; ok {
		return g
	}
	return GroupSystem
}

// IsCritical 判断一条告警是否需要升级通知。
// 三种情况任一成立：观测点在升级名单内；级别为 critical；
// 级别为 error 且观测点在升级名单内。
func IsCritical(record *models.AlertRecord) bool {
	if record == nil {
		return false
	}
	if escalateObservers[record.ObserverName] {
		return true
	}
	if record.Level == models.SeverityCritical {
		return true
	}
	return record.Level == models.SeverityError && escalateObservers[record.ObserverName]
}

// Known 观测点是否已登记显示名
func Known(key string) bool {
	_, ok := displayNames[key]
	return ok
}
