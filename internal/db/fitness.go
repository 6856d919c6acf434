package db

import "gorm.io/gorm"

// FitnessDay 保存一次导入中某用户某日的活动与饮水数据。
// 营养总量为冗余字段，读取时按 MealEntry 重新汇总。
type FitnessDay struct {
	gorm.Model
	UserID        uint   `gorm:"index:idx_fitness_day_key;not null"`
	Date          string `gorm:"size:10;index:idx_fitness_day_key;not null"`
	Source        string `gorm:"size:32;index:idx_fitness_day_key"`
	ImportID      string `gorm:"size:36;index"`
	CaloriesIn    float64
	Carbs         float64
	Fat           float64
	Protein       float64
	CaloriesOut   float64
	Water         float64
	Steps         float64
	Distance      float64
	ActiveMinutes float64
}

// TableName 指定自定义表名。
func (FitnessDay) TableName() string {
	return "fitness_days"
}

// MealEntry 保存单条食物记录，Position 为导入批次内的顺序。
type MealEntry struct {
	gorm.Model
	UserID   uint   `gorm:"index:idx_meal_entry_key;not null"`
	Date     string `gorm:"size:10;index:idx_meal_entry_key;not null"`
	Source   string `gorm:"size:32;index:idx_meal_entry_key"`
	ImportID string `gorm:"size:36;index"`
	Day      string `gorm:"size:16"`
	Slot     string `gorm:"size:32"`
	Name     string
	Brand    string
	Amount   float64
	Unit     string `gorm:"size:32"`
	Calories float64
	Carbs    float64
	Fat      float64
	Protein  float64
	Position int
}

// TableName 指定自定义表名。
func (MealEntry) TableName() string {
	return "meal_entries"
}
