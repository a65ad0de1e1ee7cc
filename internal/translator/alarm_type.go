package translator

import (
	"fmt"
	"regexp"
	"strconv"

	"observation-hub/internal/models"
)

// 硬件告警流（alarm_type 观测点）的翻译。details 里最多带三个桶：
// new_events（type 0 事件上报）、new_send_alarms（type 1 故障）、
// new_resume_alarms（type 2 恢复），另有 active_alarms 给出当前
// 未恢复的故障数。老版本 agent 没有结构化桶，只能从原始消息文本
// 回退解析，且上下两代日志格式都要认。

var (
	// 当前格式：AlarmType:1 fault ... AlarmId:0x10 ... objType:DiskFault
	currentTypePattern = regexp.MustCompile(`(?i)AlarmType:(\d+)\s+(event|fault|resume)`)
	currentIDPattern   = regexp.MustCompile(`(?i)AlarmId:(\S+)`)
	currentObjPattern  = regexp.MustCompile(`(?i)objType:(\S+)`)

	// 旧格式：alarm type(1) alarm name(DiskFault) alarm id(0x10) ... send alarm
	legacyTypePattern   = regexp.MustCompile(`(?i)alarm\s*type\s*\(\s*(\d+)\s*\)`)
	legacyNamePattern   = regexp.MustCompile(`(?i)alarm\s*name\s*\(\s*([^)]+?)\s*\)`)
	legacyIDPattern     = regexp.MustCompile(`(?i)alarm\s*id\s*\(\s*([^)]+?)\s*\)`)
	legacySendPattern   = regexp.MustCompile(`(?i)send\s+alarm`)
	legacyResumePattern = regexp.MustCompile(`(?i)resume\s+alarm`)

	timestampPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})`),
		regexp.MustCompile(`([A-Z][a-z]{2}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2})`),
		regexp.MustCompile(`\[(\d+\.\d+)\]`),
	}
)

// ParseAlarmText 从日志行文本解析一条硬件告警事件。
// 先认当前格式，再退回旧格式；两种都不匹配时返回 nil，调用方
// 应当按"只展示原文"处理。
func ParseAlarmText(text string) *models.NormalizedEvent {
	if text == "" {
		return nil
	}
	if ev := parseCurrentGrammar(text); ev != nil {
		return ev
	}
	return parseLegacyGrammar(text)
}

func parseCurrentGrammar(text string) *models.NormalizedEvent {
	m := currentTypePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	alarmType, _ := strconv.Atoi(m[1])
	action := toLowerAction(m[2])

	ev := &models.NormalizedEvent{
		AlarmType: &alarmType,
		Action:    action,
		Timestamp: parseLineTimestamp(text),
		IsSend:    alarmType == 1,
		IsResume:  alarmType == 2,
		IsEvent:   alarmType == 0,
		IsHistory: alarmType == 0,
		Line:      text,
	}
	if idm := currentIDPattern.FindStringSubmatch(text); idm != nil {
		ev.AlarmID = idm[1]
	}
	if om := currentObjPattern.FindStringSubmatch(text); om != nil {
		ev.ObjType = om[1]
		ev.AlarmName = om[1]
	} else {
		ev.ObjType = "未知"
		ev.AlarmName = "未知"
	}
	ev.Recovered = ev.IsResume || ev.IsHistory
	return ev
}

func parseLegacyGrammar(text string) *models.NormalizedEvent {
	typeMatch := legacyTypePattern.FindStringSubmatch(text)
	nameMatch := legacyNamePattern.FindStringSubmatch(text)
	if typeMatch == nil && nameMatch == nil {
		return nil
	}

	ev := &models.NormalizedEvent{
		AlarmName: "未知",
		Timestamp: parseLineTimestamp(text),
		IsSend:    legacySendPattern.MatchString(text),
		IsResume:  legacyResumePattern.MatchString(text),
		Line:      text,
	}
	if typeMatch != nil {
		alarmType, _ := strconv.Atoi(typeMatch[1])
		ev.AlarmType = &alarmType
		ev.IsHistory = alarmType == 0
		ev.IsEvent = alarmType == 0
	}
	if nameMatch != nil {
		ev.AlarmName = nameMatch[1]
		ev.ObjType = nameMatch[1]
	}
	if idMatch := legacyIDPattern.FindStringSubmatch(text); idMatch != nil {
		ev.AlarmID = idMatch[1]
	}

	switch {
	case ev.IsResume:
		ev.Action = "resume"
	case ev.IsHistory:
		ev.Action = "event"
	case ev.IsSend:
		ev.Action = "fault"
	}
	ev.Recovered = ev.IsResume || ev.IsHistory
	return ev
}

func parseLineTimestamp(text string) string {
	for _, p := range timestampPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func toLowerAction(s string) string {
	switch s {
	case "Event", "EVENT", "event":
		return "event"
	case "Fault", "FAULT", "fault":
		return "fault"
	case "Resume", "RESUME", "resume":
		return "resume"
	default:
		b := []byte(s)
		for i := range b {
			if b[i] >= 'A' && b[i] <= 'Z' {
				b[i] += 'a' - 'A'
			}
		}
		return string(b)
	}
}

// normalizeEventEntry 把结构化桶里的一条事件归一化。
// 新旧两代 agent 的字段名不完全一致（is_history_report /
// is_event_report、alarm_name / obj_type），两边都认。
func normalizeEventEntry(m map[string]any) models.NormalizedEvent {
	ev := models.NormalizedEvent{
		Action:    entryString(m, "action"),
		AlarmName: entryString(m, "alarm_name"),
		AlarmID:   entryString(m, "alarm_id"),
		ObjType:   entryString(m, "obj_type"),
		Timestamp: entryString(m, "timestamp"),
		Line:      entryString(m, "line"),
	}
	if v, ok := detailNumber(m, "alarm_type"); ok {
		t := int(v)
		ev.AlarmType = &t
	}
	if ev.ObjType == "" {
		ev.ObjType = ev.AlarmName
	}
	if ev.AlarmName == "" {
		ev.AlarmName = ev.ObjType
	}

	boolField := func(key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	ev.IsSend = boolField("is_send")
	ev.IsResume = boolField("is_resume")
	ev.IsEvent = boolField("is_event")
	ev.Recovered = boolField("recovered")
	ev.IsHistory = boolField("is_history_report") || boolField("is_event_report")

	if ev.AlarmType != nil {
		switch *ev.AlarmType {
		case 0:
			ev.IsHistory = true
			ev.IsEvent = true
		case 1:
			ev.IsSend = true
		case 2:
			ev.IsResume = true
		}
	}
	if ev.Action == "" {
		switch {
		case ev.IsResume:
			ev.Action = "resume"
		case ev.IsHistory:
			ev.Action = "event"
		case ev.IsSend:
			ev.Action = "fault"
		}
	}
	return ev
}

// FirstAlarmEvent 返回一条 alarm_type 告警中占主导的那个事件：
// 按故障 → 恢复 → 事件的优先级取第一条结构化事件，没有结构化桶时
// 回退解析消息文本。折叠引擎按这个事件决定同类归组。
func FirstAlarmEvent(rec *models.AlertRecord) *models.NormalizedEvent {
	if rec == nil {
		return nil
	}
	for _, bucket := range []string{"new_send_alarms", "new_resume_alarms", "new_events"} {
		if list := detailList(rec.Details, bucket); len(list) > 0 {
			ev := normalizeEventEntry(list[0])
			return &ev
		}
	}
	return ParseAlarmText(rec.Message)
}

func translateAlarmType(rec *models.AlertRecord) models.Translation {
	sends := detailList(rec.Details, "new_send_alarms")
	resumes := detailList(rec.Details, "new_resume_alarms")
	events := detailList(rec.Details, "new_events")
	active := detailList(rec.Details, "active_alarms")

	// 旧 agent 把 type 0 混在 new_send_alarms 里上报
	var normalSends, historySends []models.NormalizedEvent
	for _, m := range sends {
		ev := normalizeEventEntry(m)
		if ev.IsHistory {
			historySends = append(historySends, ev)
		} else {
			normalSends = append(normalSends, ev)
		}
	}
	var resumeEvents []models.NormalizedEvent
	for _, m := range resumes {
		resumeEvents = append(resumeEvents, normalizeEventEntry(m))
	}
	var reportEvents []models.NormalizedEvent
	for _, m := range events {
		reportEvents = append(reportEvents, normalizeEventEntry(m))
	}

	var parts []string
	switch len(normalSends) {
	case 0:
	case 1:
		parts = append(parts, fmt.Sprintf("告警上报：%s (%s)", eventName(normalSends[0]), eventID(normalSends[0])))
	default:
		parts = append(parts, fmt.Sprintf("新上报 %d 条告警", len(normalSends)))
	}
	switch len(historySends) {
	case 0:
	case 1:
		parts = append(parts, fmt.Sprintf("[历史] %s (%s) 历史告警上报", eventName(historySends[0]), eventID(historySends[0])))
	default:
		parts = append(parts, fmt.Sprintf("%d 条历史告警上报", len(historySends)))
	}
	switch len(reportEvents) {
	case 0:
	case 1:
		parts = append(parts, fmt.Sprintf("事件上报：%s (%s)", eventName(reportEvents[0]), eventID(reportEvents[0])))
	default:
		parts = append(parts, fmt.Sprintf("%d 条事件上报", len(reportEvents)))
	}
	switch len(resumeEvents) {
	case 0:
	case 1:
		parts = append(parts, fmt.Sprintf("告警恢复：%s (%s) 已消除", eventName(resumeEvents[0]), eventID(resumeEvents[0])))
	default:
		parts = append(parts, fmt.Sprintf("%d 条告警已恢复", len(resumeEvents)))
	}

	event := joinParts(parts)

	// parsed 取第一条结构化事件：故障 → 恢复 → 事件
	var parsed *models.NormalizedEvent
	switch {
	case len(normalSends) > 0:
		parsed = &normalSends[0]
	case len(historySends) > 0:
		parsed = &historySends[0]
	case len(resumeEvents) > 0:
		parsed = &resumeEvents[0]
	case len(reportEvents) > 0:
		parsed = &reportEvents[0]
	default:
		parsed = ParseAlarmText(rec.Message)
	}

	// 没有任何结构化桶时，从消息文本回退组一句人话
	if event == "" {
		event = alarmFallbackText(rec.Message, parsed)
	}

	var impact, suggestion string
	if len(active) > 0 {
		impact = fmt.Sprintf("当前 %d 个活跃告警未恢复", len(active))
	}
	hasFault := len(normalSends) > 0 || (parsed != nil && parsed.IsSend && !parsed.IsHistory)
	if hasFault {
		if impact == "" {
			impact = "存在新的故障告警"
		}
		suggestion = "建议按告警 ID 在阵列侧确认故障对象并排查恢复"
	}

	all := make([]models.NormalizedEvent, 0, len(normalSends)+len(historySends)+len(resumeEvents)+len(reportEvents))
	all = append(all, normalSends...)
	all = append(all, historySends...)
	all = append(all, resumeEvents...)
	all = append(all, reportEvents...)

	return models.Translation{
		Event:      event,
		Impact:     impact,
		Suggestion: suggestion,
		Parsed:     parsed,
		Events:     all,
		LogPath:    detailString(rec.Details, "log_path"),
	}
}

// alarmFallbackText 只有原始消息可用时的人话组装
func alarmFallbackText(message string, parsed *models.NormalizedEvent) string {
	if message == "" && parsed == nil {
		return "告警事件"
	}
	if parsed != nil {
		id := ""
		if parsed.AlarmID != "" {
			id = fmt.Sprintf(" (%s)", parsed.AlarmID)
		}
		switch {
		case parsed.IsHistory:
			return fmt.Sprintf("[历史] %s%s 历史告警上报", parsed.AlarmName, id)
		case parsed.IsResume:
			return fmt.Sprintf("告警恢复：%s%s 已消除", parsed.AlarmName, id)
		case parsed.IsSend:
			return fmt.Sprintf("告警上报：%s%s", parsed.AlarmName, id)
		}
	}
	return truncate(message, 80)
}

func eventName(ev models.NormalizedEvent) string {
	if ev.AlarmName != "" {
		return ev.AlarmName
	}
	if ev.ObjType != "" {
		return ev.ObjType
	}
	return "未知"
}

func eventID(ev models.NormalizedEvent) string {
	if ev.AlarmID != "" {
		return ev.AlarmID
	}
	return "?"
}

func joinParts(parts []string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " | "
		}
		out += p
	}
	return out
}
