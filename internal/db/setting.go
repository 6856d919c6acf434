package db

import "gorm.io/gorm"

// Setting 存储可在运行时修改的键值配置。
type Setting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (Setting) TableName() string {
	return "settings"
}

const (
	// SettingKeyWaterGoal 表示每日饮水目标（毫升）。
	SettingKeyWaterGoal = "water_goal_ml"
	// SettingKeyFitbitToken 表示保存的 Fitbit 访问令牌。
	SettingKeyFitbitToken = "fitbit_access_token"
)
