package translator

import (
	"fmt"

	"observation-hub/internal/models"
)

// 卡件级观测点的翻译：卡修复、卡件信息、PCIe 带宽、控制器状态、磁盘状态。

func translateCardRecovery(rec *models.AlertRecord) models.Translation {
	events := detailList(rec.Details, "events")
	if len(events) == 0 {
		return models.Translation{}
	}

	first := events[0]
	line := entryString(first, "line")
	keyword := entryString(first, "keyword")

	var event string
	switch {
	case len(events) == 1 && keyword != "":
		event = fmt.Sprintf("检测到卡修复事件：%s", keyword)
	case len(events) == 1:
		event = fmt.Sprintf("检测到卡修复事件：%s", truncate(line, 60))
	default:
		event = fmt.Sprintf("检测到 %d 条卡修复事件", len(events))
	}

	return models.Translation{
		Event:      event,
		Impact:     "卡件触发了修复流程，修复期间可能出现业务抖动",
		Suggestion: "建议确认修复是否完成，并观察同一卡件是否反复触发",
		LogPath:    detailString(rec.Details, "log_path"),
	}
}

func translateCardInfo(rec *models.AlertRecord) models.Translation {
	alerts := detailList(rec.Details, "alerts")
	if len(alerts) == 0 {
		return models.Translation{}
	}

	first := alerts[0]
	card := entryString(first, "card")
	field := entryString(first, "field")
	value := entryString(first, "value")
	expect := entryString(first, "expect")
	boardID := entryString(first, "board_id")

	label := card
	if boardID != "" {
		label = fmt.Sprintf("%s (BoardId: %s)", card, boardID)
	}

	event := fmt.Sprintf("卡件 %s 的 %s 异常：%s（预期 %s）", label, field, value, expect)
	if len(alerts) > 1 {
		event += fmt.Sprintf("，共 %d 项异常", len(alerts))
	}

	return models.Translation{
		Event:      event,
		Impact:     "卡件关键信息与预期不符，卡件可能处于异常运行状态",
		Suggestion: "建议核对该卡件的运行状态与硬件信息，必要时下电检查",
	}
}

func translatePcieBandwidth(rec *models.AlertRecord) models.Translation {
	downgrades := detailList(rec.Details, "downgrades")
	if len(downgrades) == 0 {
		return models.Translation{}
	}

	first := downgrades[0]
	device := entryString(first, "device")
	if device == "" {
		device = entryString(first, "id")
	}

	var event string
	if len(downgrades) == 1 {
		event = fmt.Sprintf("PCIe 设备 %s 链路带宽降级", device)
	} else {
		event = fmt.Sprintf("%d 个 PCIe 设备链路带宽降级", len(downgrades))
	}

	return models.Translation{
		Event:      event,
		Impact:     "PCIe 带宽降级会直接拉低该通道的 IO 吞吐",
		Suggestion: "建议检查设备插槽接触情况，确认降级原因后复位链路",
	}
}

func translateControllerState(rec *models.AlertRecord) models.Translation {
	return translateComponentState(rec, "控制器")
}

func translateDiskState(rec *models.AlertRecord) models.Translation {
	return translateComponentState(rec, "磁盘")
}

// 控制器和磁盘的状态变化 payload 形状相同，共用一套句式
func translateComponentState(rec *models.AlertRecord, kind string) models.Translation {
	changes := detailList(rec.Details, "changes")
	if len(changes) == 0 {
		return models.Translation{}
	}

	first := changes[0]
	id := entryString(first, "id")
	oldState := entryString(first, "old_state")
	newState := entryString(first, "new_state")

	var event string
	if len(changes) == 1 {
		event = fmt.Sprintf("%s %s 状态变化：%s -> %s", kind, id, oldState, newState)
	} else {
		event = fmt.Sprintf("%d 个%s状态变化（%s: %s -> %s 等）", len(changes), kind, id, oldState, newState)
	}

	return models.Translation{
		Event:      event,
		Impact:     fmt.Sprintf("%s状态异常期间其承载的业务可能降级或切换", kind),
		Suggestion: fmt.Sprintf("建议确认%s当前状态，检查是否需要更换或人工介入", kind),
	}
}
