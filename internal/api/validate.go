package api

import (
	"fmt"
	"strings"
	"time"

	"tasknest/internal/model"
)

// 截止时间接受的格式。任何能解析为日期的字符串都有效。
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDeadline 解析截止时间字符串并要求严格晚于当前时刻。
// 返回值为解析结果与校验失败信息（为空表示通过）。
func parseDeadline(raw string) (time.Time, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, "Deadline is required"
	}
	var deadline time.Time
	var err error
	for _, layout := range deadlineLayouts {
		deadline, err = time.Parse(layout, raw)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, "Deadline must be a valid date"
	}
	if !deadline.After(time.Now()) {
		return time.Time{}, "Deadline must be a future date"
	}
	return deadline, ""
}

// parseStatus 校验状态枚举。required 为 false 时空值回退到 pending。
func parseStatus(raw string, required bool) (model.Status, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return "", "Status is required"
		}
		return model.StatusPending, ""
	}
	status := model.Status(raw)
	if !status.Valid() {
		return "", statusEnumMessage()
	}
	return status, ""
}

func statusEnumMessage() string {
	values := make([]string, 0, len(model.Statuses()))
	for _, s := range model.Statuses() {
		values = append(values, string(s))
	}
	return fmt.Sprintf("Status must be one of [%s]", strings.Join(values, ", "))
}
