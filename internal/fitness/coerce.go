package fitness

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CoerceNumber 将字符串形式的数值转为非负有限数。
// 只取开头的十进制数字部分，"2.5g" 为 2.5，"170 kcal" 为 170。
// 无法解析、缺失、NaN/Inf 一律为 0，负数截断为 0。
func CoerceNumber(raw string) float64 {
	prefix := leadingDecimal(strings.TrimSpace(raw))
	if prefix == "" {
		return 0
	}

	value, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	if value < 0 {
		return 0
	}
	return value
}

// leadingDecimal 返回 s 开头最长的十进制浮点数文本：
// 可选符号、数字、可选小数部分、可选指数。不接受十六进制和下划线写法。
func leadingDecimal(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		fraction := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			fraction++
		}
		if digits+fraction > 0 {
			i = j
			digits += fraction
		}
	}
	if digits == 0 {
		return ""
	}

	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			end = j
		}
	}
	return s[:end]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Records 是强制转换后的三类记录
type Records struct {
	Meals      []MealRecord
	Activities []ActivityRecord
	Water      []WaterRecord
}

// Coerce 将映射后的记录转换为带数值字段的规范记录。
// 日期被规范化为 YYYY-MM-DD，无法解析时回退为 now 所在日期并产生一条警告。
func Coerce(batch *MappedBatch, now time.Time) (Records, []string) {
	var warnings []string
	today := FormatDate(now)

	canonical := func(kind RecordKind, index int, raw string) string {
		if parsed, ok := ParseDate(raw); ok {
			return FormatDate(parsed)
		}
		warnings = append(warnings, fmt.Sprintf("%s entry #%d has unparseable date %q, using %s", kind.Label(), index, raw, today))
		return today
	}

	records := Records{
		Meals:      make([]MealRecord, 0, len(batch.Meals)),
		Activities: make([]ActivityRecord, 0, len(batch.Activities)),
		Water:      make([]WaterRecord, 0, len(batch.Water)),
	}

	for i, meal := range batch.Meals {
		date := canonical(KindMeal, i+1, meal.Date)
		day := strings.TrimSpace(meal.Day)
		if day == "" {
			day = WeekdayLabel(date)
		}
		records.Meals = append(records.Meals, MealRecord{
			Date:      date,
			Day:       day,
			Meal:      meal.Meal,
			Name:      meal.Name,
			BrandName: meal.BrandName,
			Amount:    CoerceNumber(meal.Amount),
			Unit:      meal.Unit,
			Calories:  CoerceNumber(meal.Cals),
			Carbs:     CoerceNumber(meal.Carbs),
			Fat:       CoerceNumber(meal.Fat),
			Protein:   CoerceNumber(meal.Protein),
		})
	}

	for i, activity := range batch.Activities {
		records.Activities = append(records.Activities, ActivityRecord{
			Date:          canonical(KindActivity, i+1, activity.Date),
			CaloriesOut:   CoerceNumber(activity.CalsOut),
			Steps:         CoerceNumber(activity.Steps),
			Distance:      CoerceNumber(activity.Distance),
			ActiveMinutes: CoerceNumber(activity.ActiveMinutes),
		})
	}

	for i, water := range batch.Water {
		records.Water = append(records.Water, WaterRecord{
			Date:   canonical(KindWater, i+1, water.Date),
			Amount: CoerceNumber(water.Water),
		})
	}

	return records, warnings
}
