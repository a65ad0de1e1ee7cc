// Package folding 把反复出现的同一问题折叠成组，避免告警列表被
// 重复条目刷屏。折叠是纯函数：每次告警列表变化就整体重算，组的
// key 与到达顺序无关，展开/收起状态由调用方单独持有，重算不会
// 冲掉用户的展开操作。
package folding

import (
	"fmt"
	"regexp"
	"strings"

	"observation-hub/internal/models"
	"observation-hub/internal/registry"
)

const skeletonLimit = 80

var (
	// ISO-8601 风格的时间戳（2024-01-02 03:04:05 / 2024-01-02T03:04:05）
	timestampRun = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]?(\d{2}:\d{2}(:\d{2})?)?`)
	digitRun     = regexp.MustCompile(`\d+`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

// Skeleton 通用回退标识：去掉时间戳和数字后消息基本一样的，就认为
// 是同一问题。故意做得很粗，只服务于没有专属规则的观测点。
func Skeleton(message string) string {
	s := timestampRun.ReplaceAllString(message, "")
	s = digitRun.ReplaceAllString(s, "")
	s = spaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > skeletonLimit {
		s = string(runes[:skeletonLimit])
	}
	return s
}

// GroupKey 计算一条告警的折叠组 key。对 (observer, array, identity)
// 确定，与到达顺序无关。
func GroupKey(rec *models.AlertRecord) string {
	identity, ok := Identity(rec)
	if !ok {
		identity = Skeleton(rec.Message)
	}
	return rec.ObserverName + "|" + rec.ArrayID + "|" + identity
}

// Fold 单趟从左到右把告警列表折叠成组。组在结果里的顺序是 key
// 首次出现的顺序，也就是界面上的显示顺序。expanded 是调用方持有的
// 展开状态表，这里只读取，不修改。
//
// 畸形记录不会中断折叠：缺观测点名的记录按最保守方式各自成组。
func Fold(records []models.AlertRecord, expanded map[string]bool) []models.FoldGroup {
	groups := make([]models.FoldGroup, 0, len(records))
	index := make(map[string]int, len(records))

	for i := range records {
		rec := records[i]

		var key string
		if rec.ObserverName == "" {
			// 来源不明，各自成组。按列表位置编号：数据库 ID 可能
			// 还没分配（落库失败时一批全是 0），位置在同一列表的
			// 重算之间是稳定的。
			key = fmt.Sprintf("malformed|%s|%d", rec.ArrayID, i)
		} else {
			key = GroupKey(&rec)
		}

		pos, seen := index[key]
		if !seen {
			index[key] = len(groups)
			groups = append(groups, models.FoldGroup{
				Key:        key,
				Observer:   rec.ObserverName,
				ArrayID:    rec.ArrayID,
				SummaryMsg: rec.Message,
				LatestTime: rec.Timestamp,
				WorstLevel: rec.Level,
				Critical:   registry.IsCritical(&rec),
				Count:      1,
				Items:      []models.AlertRecord{rec},
			})
			continue
		}

		g := &groups[pos]
		g.Count++
		g.Items = append(g.Items, rec)
		// ISO-8601 字符串按字典序比较就是按时间比较
		if rec.Timestamp > g.LatestTime {
			g.LatestTime = rec.Timestamp
			g.SummaryMsg = rec.Message
		}
		g.WorstLevel = models.WorstSeverity(g.WorstLevel, rec.Level)
		// 组里只要有一条需要立即关注，整组都算
		if !g.Critical {
			g.Critical = registry.IsCritical(&rec)
		}
	}

	for i := range groups {
		groups[i].Expanded = expanded[groups[i].Key]
	}
	return groups
}

// ToggleExpand 翻转一个组 key 的展开状态。状态表归调用方所有，
// 生命周期跟随视图；折叠重算永远不会动它。
func ToggleExpand(expanded map[string]bool, key string) {
	if expanded == nil {
		return
	}
	if expanded[key] {
		delete(expanded, key)
		return
	}
	expanded[key] = true
}
