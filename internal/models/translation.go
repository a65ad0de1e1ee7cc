package models

// NormalizedEvent 归一化后的单条硬件告警事件。
// 两代日志格式（legacy 的 alarm type(n)/alarm name(x)/alarm id(y)
// 与当前的 AlarmType:n action AlarmId:x objType:y）都会解析到这个结构。
type NormalizedEvent struct {
	AlarmType *int   `json:"alarm_type"` // 0=事件上报 1=故障 2=恢复，解析不出时为 nil
	Action    string `json:"action"`     // event / fault / resume
	AlarmName string `json:"alarm_name"`
	AlarmID   string `json:"alarm_id"`
	ObjType   string `json:"obj_type"`
	Timestamp string `json:"timestamp"`
	IsSend    bool   `json:"is_send"`
	IsResume  bool   `json:"is_resume"`
	IsEvent   bool   `json:"is_event"`
	IsHistory bool   `json:"is_history"` // alarm type(0)：历史/信息上报，无恢复策略
	Recovered bool   `json:"recovered"`
	Line      string `json:"line"`
}

// Translation 一条告警的三段式人话翻译。
// Summary 恒等于 Event（无翻译器命中时等于截断后的原始消息）。
// 同一条记录任何时候翻译结果都相同，不缓存。
type Translation struct {
	Summary    string            `json:"summary"`
	Event      string            `json:"event"`      // 发生了什么
	Impact     string            `json:"impact"`     // 影响什么
	Suggestion string            `json:"suggestion"` // 建议做什么
	Parsed     *NormalizedEvent  `json:"parsed"`     // 命中结构化事件时非 nil
	Original   string            `json:"original"`
	Events     []NormalizedEvent `json:"events,omitempty"`
	LogPath    string            `json:"log_path,omitempty"`
}

// FoldGroup 折叠组：被判定为同一问题反复出现的一组告警。
// 组的 key 只由 (observer, array, identity) 决定，与到达顺序无关；
// 组在输出列表中的位置是 key 首次出现的顺序。
type FoldGroup struct {
	Key        string        `json:"key"`
	Observer   string        `json:"observer"`
	ArrayID    string        `json:"array_id"`
	SummaryMsg string        `json:"summary_msg"`
	LatestTime string        `json:"latest_time"`
	WorstLevel Severity      `json:"worst_level"`
	Critical   bool          `json:"critical"`
	Count      int           `json:"count"`
	Items      []AlertRecord `json:"items"`
	Expanded   bool          `json:"expanded"`
}
