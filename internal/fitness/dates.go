package fitness

import (
	"strings"
	"time"
)

// DateLayout 是规范日期格式 YYYY-MM-DD
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, 02 Jan 2006",
	"Monday, January 2, 2006",
}

// ParseDate 解析常见日期写法，返回 UTC 零点的日历日期。
// 带时区偏移的时间戳按其书写的日历日期取值，不换算到 UTC。
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		y, m, d := parsed.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

// ParseCanonicalDate 仅接受 YYYY-MM-DD
func ParseCanonicalDate(value string) (time.Time, bool) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// FormatDate 将时间格式化为规范日期
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekdayLabel 返回日期的英文星期全称，无法解析时返回空字符串
func WeekdayLabel(date string) string {
	parsed, ok := ParseDate(date)
	if !ok {
		return ""
	}
	return parsed.Weekday().String()
}

// WeekStart 返回日期所在周的周日
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}
