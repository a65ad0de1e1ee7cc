package translator

import (
	"fmt"

	"observation-hub/internal/models"
)

// 系统级观测点的翻译：内存、CPU、命令响应、SIG 信号、敏感信息、
// 进程崩溃、IO 超时。

func translateMemoryLeak(rec *models.AlertRecord) models.Translation {
	used, hasUsed := detailNumber(rec.Details, "current_used_mb")
	increases, _ := detailNumber(rec.Details, "consecutive_increases")
	if !hasUsed {
		return models.Translation{}
	}

	event := fmt.Sprintf("内存占用持续增长，当前 %s MB", formatNumber(used))
	if increases > 0 {
		event = fmt.Sprintf("内存连续 %s 次采集持续增长，当前 %s MB", formatNumber(increases), formatNumber(used))
	}

	return models.Translation{
		Event:      event,
		Impact:     "内存持续增长疑似泄漏，放任会触发 OOM 影响整机",
		Suggestion: "建议定位占用增长的进程，确认是否存在内存泄漏",
	}
}

func translateCpuUsage(rec *models.AlertRecord) models.Translation {
	usage, hasUsage := detailNumber(rec.Details, "current_usage_percent")
	threshold, hasThreshold := detailNumber(rec.Details, "threshold_percent")
	if !hasUsage {
		return models.Translation{}
	}

	event := fmt.Sprintf("CPU 利用率 %s%%", formatNumber(usage))
	if hasThreshold {
		event = fmt.Sprintf("CPU 利用率 %s%%，连续超过阈值 %s%%", formatNumber(usage), formatNumber(threshold))
	}

	return models.Translation{
		Event:      event,
		Impact:     "CPU 长期高负载会拖慢管理面响应与 IO 调度",
		Suggestion: "建议确认高占用进程，判断是业务高峰还是异常占用",
	}
}

func translateCmdResponse(rec *models.AlertRecord) models.Translation {
	results := detailList(rec.Details, "results")
	timeout, hasTimeout := detailNumber(rec.Details, "timeout_seconds")

	var slow []map[string]any
	for _, r := range results {
		if exceeded, _ := r["exceeded"].(bool); exceeded {
			slow = append(slow, r)
		}
	}
	if len(slow) == 0 {
		return models.Translation{}
	}

	first := slow[0]
	cmd := entryString(first, "command")
	elapsed, _ := detailNumber(first, "elapsed_seconds")

	event := fmt.Sprintf("命令 %s 响应耗时 %s 秒", cmd, formatNumber(elapsed))
	if hasTimeout {
		event += fmt.Sprintf("（阈值 %s 秒）", formatNumber(timeout))
	}
	if len(slow) > 1 {
		event += fmt.Sprintf("，共 %d 条命令超时", len(slow))
	}

	return models.Translation{
		Event:      event,
		Impact:     "管理命令响应变慢，控制面可能已经出现阻塞",
		Suggestion: "建议检查系统负载与管理进程状态，确认阻塞点",
	}
}

func translateSigMonitor(rec *models.AlertRecord) models.Translation {
	newAlerts := detailList(rec.Details, "new_alerts")
	if len(newAlerts) == 0 {
		return models.Translation{}
	}

	first := newAlerts[0]
	line := entryString(first, "line")

	var event string
	if len(newAlerts) == 1 {
		event = fmt.Sprintf("检测到 SIG 信号事件：%s", truncate(line, 60))
	} else {
		event = fmt.Sprintf("检测到 %d 条 SIG 信号事件", len(newAlerts))
	}

	return models.Translation{
		Event:      event,
		Impact:     "异常信号通常意味着进程被外部干预或自身异常",
		Suggestion: "建议结合日志上下文确认信号来源与目标进程",
		LogPath:    detailString(rec.Details, "log_path"),
	}
}

func translateSensitiveInfo(rec *models.AlertRecord) models.Translation {
	findings := detailList(rec.Details, "findings")
	if len(findings) == 0 {
		return models.Translation{}
	}

	first := findings[0]
	category := entryString(first, "category")

	var event string
	if len(findings) == 1 {
		event = fmt.Sprintf("日志中发现敏感信息：%s", category)
	} else {
		event = fmt.Sprintf("日志中发现 %d 处敏感信息（%s 等）", len(findings), category)
	}

	return models.Translation{
		Event:      event,
		Impact:     "敏感信息落入日志存在泄露风险",
		Suggestion: "建议定位打印来源并整改，必要时清理已落盘日志",
	}
}

func translateProcessCrash(rec *models.AlertRecord) models.Translation {
	crashes := detailList(rec.Details, "crashes")
	if len(crashes) == 0 {
		return models.Translation{}
	}

	first := crashes[0]
	process := entryString(first, "process")
	crashType := entryString(first, "type")
	if process == "" {
		process = "未知进程"
	}

	var event string
	if len(crashes) == 1 {
		event = fmt.Sprintf("进程 %s 崩溃（%s）", process, crashType)
	} else {
		event = fmt.Sprintf("检测到 %d 次进程崩溃（%s: %s 等）", len(crashes), process, crashType)
	}

	return models.Translation{
		Event:      event,
		Impact:     "进程崩溃期间其承担的功能不可用，可能引发业务中断",
		Suggestion: "建议收集崩溃栈与核心转储，确认崩溃原因后修复",
		LogPath:    detailString(rec.Details, "log_path"),
	}
}

func translateIoTimeout(rec *models.AlertRecord) models.Translation {
	events := detailList(rec.Details, "events")
	if len(events) == 0 {
		return models.Translation{}
	}

	first := events[0]
	summary := entryString(first, "summary")

	var event string
	if len(events) == 1 && summary != "" {
		event = fmt.Sprintf("检测到 IO 异常事件：%s", summary)
	} else {
		event = fmt.Sprintf("检测到 %d 个 IO 异常事件", len(events))
	}

	return models.Translation{
		Event:      event,
		Impact:     "IO 超时直接影响主机侧读写时延，属于关键路径异常",
		Suggestion: "建议立即检查对应磁盘与链路状态，评估是否隔离故障盘",
		LogPath:    detailString(rec.Details, "log_path"),
	}
}
