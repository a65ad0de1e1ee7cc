package translator

import (
	"fmt"

	"observation-hub/internal/models"
)

// 端口级观测点的翻译：误码、链路状态、端口速率、FEC、端口流量。

func translateErrorCode(rec *models.AlertRecord) models.Translation {
	ports := detailMap(rec.Details, "port_counters")
	pcie := detailMap(rec.Details, "pcie_errors")
	portKeys := sortedKeys(ports)

	var event string
	switch {
	case len(portKeys) == 1:
		event = fmt.Sprintf("端口 %s 误码计数增长", portKeys[0])
	case len(portKeys) > 1:
		event = fmt.Sprintf("%d 个端口误码计数增长（%s 等）", len(portKeys), portKeys[0])
	}
	if len(pcie) > 0 {
		pcieNote := fmt.Sprintf("检测到 %d 项 PCIe 错误计数", len(pcie))
		if event == "" {
			event = pcieNote
		} else {
			event += " | " + pcieNote
		}
	}
	if event == "" {
		return models.Translation{}
	}

	return models.Translation{
		Event:      event,
		Impact:     "误码持续增长通常伴随链路质量下降和丢包",
		Suggestion: "建议检查该端口的光模块、线缆及对端设备",
	}
}

func translateLinkStatus(rec *models.AlertRecord) models.Translation {
	changes := detailList(rec.Details, "changes")
	if len(changes) == 0 {
		return models.Translation{}
	}

	first := changes[0]
	port := entryString(first, "port")
	change := entryString(first, "change")

	var event string
	if len(changes) == 1 {
		event = fmt.Sprintf("端口 %s 链路状态变化：%s", port, change)
	} else {
		event = fmt.Sprintf("%d 项链路状态变化（%s: %s 等）", len(changes), port, change)
	}

	return models.Translation{
		Event:      event,
		Impact:     "链路状态变化期间该端口的业务流量可能中断",
		Suggestion: "建议确认是否为计划内操作，排查端口两端的连接",
	}
}

func translatePortSpeed(rec *models.AlertRecord) models.Translation {
	changes := detailList(rec.Details, "changes")
	if len(changes) == 0 {
		return models.Translation{}
	}

	first := changes[0]
	port := entryString(first, "port")
	oldSpeed, hasOld := detailNumber(first, "old_speed")
	newSpeed, hasNew := detailNumber(first, "new_speed")

	event := fmt.Sprintf("端口 %s 速率变化", port)
	if hasOld && hasNew {
		event = fmt.Sprintf("端口 %s 速率变化：%s -> %s Mbps", port, formatNumber(oldSpeed), formatNumber(newSpeed))
	}
	if len(changes) > 1 {
		event += fmt.Sprintf("（共 %d 个端口）", len(changes))
	}

	// 降速和普通变速分开说
	impact := "端口速率发生变化"
	if hasOld && hasNew && newSpeed < oldSpeed {
		impact = "端口速率降低，吞吐能力下降"
	}

	return models.Translation{
		Event:      event,
		Impact:     impact,
		Suggestion: "建议检查端口协商配置与对端设备速率设置",
	}
}

func translatePortFec(rec *models.AlertRecord) models.Translation {
	changes := detailList(rec.Details, "changes")
	if len(changes) == 0 {
		return models.Translation{}
	}

	first := changes[0]
	port := entryString(first, "port")
	oldFec := entryString(first, "old_fec")
	newFec := entryString(first, "new_fec")

	var event string
	if len(changes) == 1 {
		event = fmt.Sprintf("端口 %s FEC 模式变化：%s -> %s", port, oldFec, newFec)
	} else {
		event = fmt.Sprintf("%d 个端口 FEC 模式变化（%s: %s -> %s 等）", len(changes), port, oldFec, newFec)
	}

	return models.Translation{
		Event:      event,
		Impact:     "FEC 模式不一致可能导致链路误码率升高",
		Suggestion: "建议核对端口两端的 FEC 配置保持一致",
	}
}

func translatePortTraffic(rec *models.AlertRecord) models.Translation {
	if rec.Details == nil {
		return models.Translation{}
	}
	if count, ok := detailNumber(rec.Details, "record_count"); ok {
		return models.Translation{
			Event:      fmt.Sprintf("端口流量异常（%s 条采样记录）", formatNumber(count)),
			Impact:     "流量异常波动可能反映业务侧压力或链路抖动",
			Suggestion: "建议结合流量曲线确认异常时间段内的业务变化",
		}
	}
	return models.Translation{}
}
