package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fitdash/internal/db"
	"github.com/fitdash/internal/fitness"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidWaterGoal 在饮水目标不是正数时返回
var ErrInvalidWaterGoal = errors.New("water goal must be positive")

// Settings 描述运行时可修改的设置
type Settings struct {
	WaterGoalML float64 `json:"waterGoalMl"`
	FitbitToken string  `json:"-"`
}

// HasFitbitToken 表示是否保存了 Fitbit 令牌
func (s Settings) HasFitbitToken() bool {
	return strings.TrimSpace(s.FitbitToken) != ""
}

// SettingsInput 用于更新设置，nil 字段保持不变
type SettingsInput struct {
	WaterGoalML *float64
	FitbitToken *string
}

// SettingService 提供设置的读取与更新能力
type SettingService struct {
	db       *gorm.DB
	defaults Settings
}

// NewSettingService 构造 SettingService，defaults 为未保存时的取值
func NewSettingService(gdb *gorm.DB, defaults Settings) *SettingService {
	if defaults.WaterGoalML <= 0 {
		defaults.WaterGoalML = fitness.DefaultWaterGoalML
	}
	return &SettingService{db: gdb, defaults: defaults}
}

var settingKeys = []string{
	db.SettingKeyWaterGoal,
	db.SettingKeyFitbitToken,
}

// GetSettings 读取设置，如未设置将返回默认值
func (s *SettingService) GetSettings() (Settings, error) {
	result := s.defaults

	var records []db.Setting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeyWaterGoal:
			if goal, err := strconv.ParseFloat(strings.TrimSpace(record.Value), 64); err == nil && goal > 0 {
				result.WaterGoalML = goal
			}
		case db.SettingKeyFitbitToken:
			if token := strings.TrimSpace(record.Value); token != "" {
				result.FitbitToken = token
			}
		}
	}

	return result, nil
}

// UpdateSettings 保存设置并返回更新后的结果
func (s *SettingService) UpdateSettings(input SettingsInput) (Settings, error) {
	if input.WaterGoalML != nil && *input.WaterGoalML <= 0 {
		return Settings{}, ErrInvalidWaterGoal
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.WaterGoalML != nil {
			value := strconv.FormatFloat(*input.WaterGoalML, 'f', -1, 64)
			if err := upsertSetting(tx, db.SettingKeyWaterGoal, value); err != nil {
				return err
			}
		}
		if input.FitbitToken != nil {
			if err := upsertSetting(tx, db.SettingKeyFitbitToken, strings.TrimSpace(*input.FitbitToken)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Settings{}, fmt.Errorf("update settings: %w", err)
	}

	return s.GetSettings()
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.Setting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
