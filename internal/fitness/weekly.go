package fitness

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// WeeklySummary 是以周日开始的自然周汇总。
// 平均值的除数是该周实际出现的天数，而非 7。
type WeeklySummary struct {
	StartDate          string  `json:"startDate"`
	EndDate            string  `json:"endDate"`
	DayCount           int     `json:"dayCount"`
	TotalCaloriesIn    float64 `json:"totalCaloriesIn"`
	TotalCarbs         float64 `json:"totalCarbs"`
	TotalFat           float64 `json:"totalFat"`
	TotalProtein       float64 `json:"totalProtein"`
	TotalCaloriesOut   float64 `json:"totalCaloriesOut"`
	TotalWaterIntake   float64 `json:"totalWaterIntake"`
	AverageCaloriesIn  float64 `json:"averageCaloriesIn"`
	AverageCarbs       float64 `json:"averageCarbs"`
	AverageFat         float64 `json:"averageFat"`
	AverageProtein     float64 `json:"averageProtein"`
	AverageCaloriesOut float64 `json:"averageCaloriesOut"`
	AverageWaterIntake float64 `json:"averageWaterIntake"`
}

// SummarizeWeeks 将每日汇总按周分组并计算总量与平均值，结果按开始日期升序。
// 日期无法解析的汇总会被丢弃并记录警告，不会中断整体计算。
func SummarizeWeeks(daily DailyData, logger *zap.Logger) ([]WeeklySummary, []string) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var warnings []string
	buckets := make(map[string][]*DailyAggregate)

	for _, key := range daily.Dates() {
		agg := daily[key]
		date := agg.Date
		if date == "" {
			date = key
		}

		parsed, ok := ParseCanonicalDate(date)
		if !ok {
			msg := fmt.Sprintf("dropping day %q from weekly summaries: unparseable date", date)
			logger.Warn("weekly summary skipped day", zap.String("date", date))
			warnings = append(warnings, msg)
			continue
		}

		weekKey := FormatDate(WeekStart(parsed))
		buckets[weekKey] = append(buckets[weekKey], agg)
	}

	summaries := make([]WeeklySummary, 0, len(buckets))
	for weekKey, days := range buckets {
		summaries = append(summaries, summarizeWeek(weekKey, days))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartDate < summaries[j].StartDate
	})

	return summaries, warnings
}

func summarizeWeek(startDate string, days []*DailyAggregate) WeeklySummary {
	start, _ := ParseCanonicalDate(startDate)
	summary := WeeklySummary{
		StartDate: startDate,
		EndDate:   FormatDate(start.AddDate(0, 0, 6)),
		DayCount:  len(days),
	}

	for _, day := range days {
		summary.TotalCaloriesIn += day.TotalCaloriesIn
		summary.TotalCarbs += day.TotalCarbs
		summary.TotalFat += day.TotalFat
		summary.TotalProtein += day.TotalProtein
		summary.TotalCaloriesOut += day.CaloriesOut
		summary.TotalWaterIntake += day.WaterIntake
	}

	divisor := float64(max(1, summary.DayCount))
	summary.AverageCaloriesIn = summary.TotalCaloriesIn / divisor
	summary.AverageCarbs = summary.TotalCarbs / divisor
	summary.AverageFat = summary.TotalFat / divisor
	summary.AverageProtein = summary.TotalProtein / divisor
	summary.AverageCaloriesOut = summary.TotalCaloriesOut / divisor
	summary.AverageWaterIntake = summary.TotalWaterIntake / divisor

	return summary
}
