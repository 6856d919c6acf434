package fitness

import (
	"math"
	"strings"
)

// DefaultWaterGoalML 是默认每日饮水目标
const DefaultWaterGoalML = 2500

// MacroSplit 是蛋白质/碳水/脂肪的热量占比（百分比，已取整）
type MacroSplit struct {
	ProteinPercent int `json:"proteinPercent"`
	CarbsPercent   int `json:"carbsPercent"`
	FatPercent     int `json:"fatPercent"`
}

// MacroPercentages 按蛋白质 4、碳水 4、脂肪 9 kcal/g 计算热量占比
func MacroPercentages(protein, carbs, fat float64) MacroSplit {
	proteinKcal := math.Max(protein, 0) * 4
	carbsKcal := math.Max(carbs, 0) * 4
	fatKcal := math.Max(fat, 0) * 9
	total := proteinKcal + carbsKcal + fatKcal
	if total == 0 {
		return MacroSplit{}
	}
	return MacroSplit{
		ProteinPercent: int(math.Round(proteinKcal / total * 100)),
		CarbsPercent:   int(math.Round(carbsKcal / total * 100)),
		FatPercent:     int(math.Round(fatKcal / total * 100)),
	}
}

// WaterPercentage 返回饮水目标完成度，上限 100
func WaterPercentage(intake, goal float64) int {
	if goal <= 0 {
		goal = DefaultWaterGoalML
	}
	percent := int(math.Round(intake / goal * 100))
	return min(max(percent, 0), 100)
}

// MealsBySlot 按餐次过滤，忽略大小写
func MealsBySlot(meals []MealRecord, slot string) []MealRecord {
	filtered := make([]MealRecord, 0, len(meals))
	for _, meal := range meals {
		if strings.EqualFold(strings.TrimSpace(meal.Meal), strings.TrimSpace(slot)) {
			filtered = append(filtered, meal)
		}
	}
	return filtered
}

// CalorieBalance 返回摄入减去消耗
func (d *DailyAggregate) CalorieBalance() float64 {
	return d.TotalCaloriesIn - d.CaloriesOut
}
