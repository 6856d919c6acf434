package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fitdash/internal/fitness"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	reportEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Table),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
	reportSanitizer = bluemonday.UGCPolicy()
)

// Report 是区间报告的两种表示
type Report struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// ReportService 根据存储数据生成 Markdown 报告并转换为安全的 HTML
type ReportService struct {
	store    *FitnessStore
	settings *SettingService
}

// NewReportService 构造 ReportService
func NewReportService(store *FitnessStore, settings *SettingService) *ReportService {
	return &ReportService{store: store, settings: settings}
}

// Build 生成 [start, end] 的报告
func (s *ReportService) Build(userID uint, start, end string) (Report, error) {
	stored, err := s.store.LoadRange(userID, start, end)
	if err != nil {
		return Report{}, err
	}

	goal := float64(fitness.DefaultWaterGoalML)
	if s.settings != nil {
		settings, err := s.settings.GetSettings()
		if err != nil {
			return Report{}, err
		}
		goal = settings.WaterGoalML
	}

	markdown := RenderMarkdownReport(stored, goal)

	var buf bytes.Buffer
	if err := reportEngine.Convert([]byte(markdown), &buf); err != nil {
		return Report{}, fmt.Errorf("render report: %w", err)
	}

	dates := stored.DailyData.Dates()
	report := Report{Start: start, End: end, Markdown: markdown, HTML: string(reportSanitizer.SanitizeBytes(buf.Bytes()))}
	if len(dates) > 0 {
		if report.Start == "" {
			report.Start = dates[0]
		}
		if report.End == "" {
			report.End = dates[len(dates)-1]
		}
	}
	return report, nil
}

// RenderMarkdownReport 将区间数据渲染为 Markdown
func RenderMarkdownReport(stored StoredRange, waterGoal float64) string {
	var b strings.Builder
	b.WriteString("# Fitness report\n\n")

	dates := stored.DailyData.Dates()
	if len(dates) == 0 {
		b.WriteString("No data recorded for this period.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Period: %s to %s (%d days)\n\n", dates[0], dates[len(dates)-1], len(dates))

	var protein, carbs, fat float64
	for _, date := range dates {
		day := stored.DailyData[date]
		protein += day.TotalProtein
		carbs += day.TotalCarbs
		fat += day.TotalFat
	}
	split := fitness.MacroPercentages(protein, carbs, fat)
	fmt.Fprintf(&b, "Macro split: protein %d%%, carbs %d%%, fat %d%%\n\n", split.ProteinPercent, split.CarbsPercent, split.FatPercent)

	b.WriteString("## Weekly summaries\n\n")
	b.WriteString("| Week | Days | Calories in | Avg calories in | Calories out | Avg water (ml) |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, week := range stored.WeeklySummaries {
		fmt.Fprintf(&b, "| %s to %s | %d | %s | %s | %s | %s |\n",
			week.StartDate, week.EndDate, week.DayCount,
			formatAmount(week.TotalCaloriesIn), formatAmount(week.AverageCaloriesIn),
			formatAmount(week.TotalCaloriesOut), formatAmount(week.AverageWaterIntake))
	}

	b.WriteString("\n## Daily totals\n\n")
	b.WriteString("| Date | Day | Calories in | Protein | Carbs | Fat | Calories out | Balance | Water | Goal |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
	for _, date := range dates {
		day := stored.DailyData[date]
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %d%% |\n",
			day.Date, escapeCell(day.Day),
			formatAmount(day.TotalCaloriesIn), formatAmount(day.TotalProtein),
			formatAmount(day.TotalCarbs), formatAmount(day.TotalFat),
			formatAmount(day.CaloriesOut), formatAmount(day.CalorieBalance()),
			formatAmount(day.WaterIntake), fitness.WaterPercentage(day.WaterIntake, waterGoal))
	}

	return b.String()
}

func formatAmount(value float64) string {
	s := fmt.Sprintf("%.1f", value)
	return strings.TrimSuffix(s, ".0")
}

func escapeCell(value string) string {
	return strings.ReplaceAll(value, "|", `\|`)
}
