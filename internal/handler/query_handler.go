package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fitdash/internal/fitness"
	"github.com/fitdash/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetDaily 返回区间内的每日汇总；带 meal 参数时额外返回该餐次的食物列表
func (a *API) GetDaily(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	stored, ok := a.loadRange(c, user.ID)
	if !ok {
		return
	}

	response := gin.H{"dailyData": stored.DailyData}
	if slot := strings.TrimSpace(c.Query("meal")); slot != "" {
		meals := make([]fitness.MealRecord, 0)
		for _, date := range stored.DailyData.Dates() {
			meals = append(meals, fitness.MealsBySlot(stored.DailyData[date].Meals, slot)...)
		}
		response["meal"] = slot
		response["meals"] = meals
	}
	c.JSON(http.StatusOK, response)
}

// GetDay 返回某一天的汇总以及宏量营养、饮水与热量差
func (a *API) GetDay(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	day, err := a.store.LoadDay(user.ID, c.Param("date"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDateRange):
			respondError(c, http.StatusBadRequest, "invalid date")
		case errors.Is(err, service.ErrDayNotFound):
			respondError(c, http.StatusNotFound, "no data for this date")
		default:
			a.logger.Error("load day", zap.String("date", c.Param("date")), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to load day")
		}
		return
	}

	goal := float64(fitness.DefaultWaterGoalML)
	if settings, err := a.settings.GetSettings(); err == nil {
		goal = settings.WaterGoalML
	}

	c.JSON(http.StatusOK, gin.H{
		"day":            day,
		"macros":         fitness.MacroPercentages(day.TotalProtein, day.TotalCarbs, day.TotalFat),
		"waterGoalMl":    goal,
		"waterPercent":   fitness.WaterPercentage(day.WaterIntake, goal),
		"calorieBalance": day.CalorieBalance(),
	})
}

// GetWeekly 返回区间内的周汇总
func (a *API) GetWeekly(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	stored, ok := a.loadRange(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"weeklySummaries": stored.WeeklySummaries})
}

// GetReport 生成区间报告，format=markdown 返回原始 Markdown，默认返回 HTML
func (a *API) GetReport(c *gin.Context) {
	user, ok := a.requireUser(c)
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "html"))
	if format != "html" && format != "markdown" {
		respondError(c, http.StatusBadRequest, "format must be html or markdown")
		return
	}

	report, err := a.reports.Build(user.ID, c.Query("start"), c.Query("end"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			respondError(c, http.StatusBadRequest, "invalid date range")
			return
		}
		a.logger.Error("build report", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to build report")
		return
	}

	if format == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(report.HTML))
}

// ClearData 清空所有导入数据
func (a *API) ClearData(c *gin.Context) {
	if err := a.store.Clear(); err != nil {
		a.logger.Error("clear data", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to clear data")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all data cleared"})
}

func (a *API) loadRange(c *gin.Context, userID uint) (service.StoredRange, bool) {
	stored, err := a.store.LoadRange(userID, c.Query("start"), c.Query("end"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			respondError(c, http.StatusBadRequest, "invalid date range")
			return service.StoredRange{}, false
		}
		a.logger.Error("load range", zap.Uint("user_id", userID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load data")
		return service.StoredRange{}, false
	}
	return stored, true
}
