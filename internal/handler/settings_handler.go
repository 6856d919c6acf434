package handler

import (
	"errors"
	"net/http"

	"github.com/fitdash/internal/service"
	"github.com/gin-gonic/gin"
)

type settingsRequest struct {
	WaterGoalML *float64 `json:"waterGoalMl"`
	FitbitToken *string  `json:"fitbitToken"`
}

// GetSettings 获取设置，令牌只返回是否已保存
func (a *API) GetSettings(c *gin.Context) {
	settings, err := a.settings.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, settingsView(settings))
}

// UpdateSettings 更新设置
func (a *API) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if !bindJSON(c, &req, "invalid settings payload") {
		return
	}

	settings, err := a.settings.UpdateSettings(service.SettingsInput{
		WaterGoalML: req.WaterGoalML,
		FitbitToken: req.FitbitToken,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidWaterGoal) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to save settings")
		return
	}
	c.JSON(http.StatusOK, settingsView(settings))
}

func settingsView(settings service.Settings) gin.H {
	return gin.H{
		"waterGoalMl":    settings.WaterGoalML,
		"hasFitbitToken": settings.HasFitbitToken(),
	}
}
