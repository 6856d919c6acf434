package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fitdash/internal/db"
	"github.com/fitdash/internal/fitness"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrDayNotFound 在指定日期没有任何数据时返回
	ErrDayNotFound = errors.New("no fitness data for date")
	// ErrUserNotFound 在用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidDateRange 在日期区间无法解析或起止颠倒时返回
	ErrInvalidDateRange = errors.New("invalid date range")
)

// SaveMode 控制同一日期数据的写入方式
type SaveMode string

const (
	// SaveAppend 直接追加，重复导入会累加
	SaveAppend SaveMode = "append"
	// SaveReplace 先删除同一用户、同一日期、同一来源的数据再写入
	SaveReplace SaveMode = "replace"
)

// ParseSaveMode 解析写入方式，未知值回退为 fallback
func ParseSaveMode(raw string, fallback SaveMode) SaveMode {
	switch SaveMode(strings.ToLower(strings.TrimSpace(raw))) {
	case SaveAppend:
		return SaveAppend
	case SaveReplace:
		return SaveReplace
	default:
		return fallback
	}
}

// SaveOptions 描述一次持久化
type SaveOptions struct {
	Source   string
	ImportID string
	Mode     SaveMode
}

// SaveResult 汇总写入的记录数
type SaveResult struct {
	ImportID   string `json:"importId"`
	Days       int    `json:"days"`
	Meals      int    `json:"meals"`
	Activities int    `json:"activities"`
	Water      int    `json:"water"`
}

// StoredRange 是从存储重建出的区间数据
type StoredRange struct {
	DailyData       fitness.DailyData       `json:"dailyData"`
	WeeklySummaries []fitness.WeeklySummary `json:"weeklySummaries"`
}

// FitnessStore 负责导入结果的持久化与读取。
// 读取时总是经由 fitness.AggregateDaily 重建每日汇总。
type FitnessStore struct {
	db           *gorm.DB
	defaultEmail string
	logger       *zap.Logger
}

// NewFitnessStore 构造 FitnessStore
func NewFitnessStore(gdb *gorm.DB, defaultEmail string, logger *zap.Logger) *FitnessStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FitnessStore{db: gdb, defaultEmail: db.NormalizeEmail(defaultEmail), logger: logger}
}

// DefaultUser 返回默认用户，不存在时创建
func (s *FitnessStore) DefaultUser() (*db.User, error) {
	return db.EnsureDefaultUser(s.db, s.defaultEmail, "")
}

// FindOrCreateUser 按邮箱查找用户，不存在时创建
func (s *FitnessStore) FindOrCreateUser(email string) (*db.User, error) {
	return db.EnsureDefaultUser(s.db, email, "")
}

// GetUser 根据 ID 获取用户
func (s *FitnessStore) GetUser(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// SaveDataset 在单个事务中写入数据集
func (s *FitnessStore) SaveDataset(userID uint, dataset *fitness.ProcessedDataset, opts SaveOptions) (SaveResult, error) {
	result := SaveResult{ImportID: opts.ImportID}
	if dataset == nil {
		return result, nil
	}

	source := strings.TrimSpace(opts.Source)
	if source == "" {
		source = "json"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if opts.Mode == SaveReplace {
			dates := dataset.DailyData.Dates()
			if len(dates) > 0 {
				if err := tx.Unscoped().
					Where("user_id = ? AND source = ? AND date IN ?", userID, source, dates).
					Delete(&db.MealEntry{}).Error; err != nil {
					return fmt.Errorf("replace meal entries: %w", err)
				}
				if err := tx.Unscoped().
					Where("user_id = ? AND source = ? AND date IN ?", userID, source, dates).
					Delete(&db.FitnessDay{}).Error; err != nil {
					return fmt.Errorf("replace fitness days: %w", err)
				}
			}
		}

		entries := make([]db.MealEntry, 0, len(dataset.Meals))
		for i, meal := range dataset.Meals {
			entries = append(entries, db.MealEntry{
				UserID:   userID,
				Date:     meal.Date,
				Source:   source,
				ImportID: opts.ImportID,
				Day:      meal.Day,
				Slot:     meal.Meal,
				Name:     meal.Name,
				Brand:    meal.BrandName,
				Amount:   meal.Amount,
				Unit:     meal.Unit,
				Calories: meal.Calories,
				Carbs:    meal.Carbs,
				Fat:      meal.Fat,
				Protein:  meal.Protein,
				Position: i,
			})
		}
		if len(entries) > 0 {
			if err := tx.CreateInBatches(entries, 200).Error; err != nil {
				return fmt.Errorf("insert meal entries: %w", err)
			}
		}

		days := make([]db.FitnessDay, 0, len(dataset.DailyData))
		for _, date := range dataset.DailyData.Dates() {
			agg := dataset.DailyData[date]
			days = append(days, db.FitnessDay{
				UserID:        userID,
				Date:          date,
				Source:        source,
				ImportID:      opts.ImportID,
				CaloriesIn:    agg.TotalCaloriesIn,
				Carbs:         agg.TotalCarbs,
				Fat:           agg.TotalFat,
				Protein:       agg.TotalProtein,
				CaloriesOut:   agg.CaloriesOut,
				Water:         agg.WaterIntake,
				Steps:         agg.Steps,
				Distance:      agg.Distance,
				ActiveMinutes: agg.ActiveMinutes,
			})
		}
		if len(days) > 0 {
			if err := tx.CreateInBatches(days, 200).Error; err != nil {
				return fmt.Errorf("insert fitness days: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return SaveResult{ImportID: opts.ImportID}, fmt.Errorf("save dataset: %w", err)
	}

	result.Days = len(dataset.DailyData)
	result.Meals = len(dataset.Meals)
	result.Activities = len(dataset.Activities)
	result.Water = len(dataset.Water)
	return result, nil
}

// LoadRange 读取 [start, end] 内的数据，空字符串表示不限
func (s *FitnessStore) LoadRange(userID uint, start, end string) (StoredRange, error) {
	start, end, err := normalizeRange(start, end)
	if err != nil {
		return StoredRange{}, err
	}

	var entries []db.MealEntry
	if err := applyRange(s.db.Where("user_id = ?", userID), start, end).
		Order("date ASC").Order("id ASC").
		Find(&entries).Error; err != nil {
		return StoredRange{}, fmt.Errorf("load meal entries: %w", err)
	}

	var days []db.FitnessDay
	if err := applyRange(s.db.Where("user_id = ?", userID), start, end).
		Order("date ASC").Order("id ASC").
		Find(&days).Error; err != nil {
		return StoredRange{}, fmt.Errorf("load fitness days: %w", err)
	}

	daily := fitness.AggregateDaily(recordsFromRows(entries, days))
	weekly, _ := fitness.SummarizeWeeks(daily, s.logger)

	return StoredRange{DailyData: daily, WeeklySummaries: weekly}, nil
}

// LoadDay 读取单日汇总
func (s *FitnessStore) LoadDay(userID uint, date string) (*fitness.DailyAggregate, error) {
	parsed, ok := fitness.ParseDate(date)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDateRange, date)
	}
	canonical := fitness.FormatDate(parsed)

	stored, err := s.LoadRange(userID, canonical, canonical)
	if err != nil {
		return nil, err
	}
	agg, ok := stored.DailyData[canonical]
	if !ok {
		return nil, ErrDayNotFound
	}
	return agg, nil
}

// Clear 删除全部健身数据以及除默认用户以外的所有用户
func (s *FitnessStore) Clear() error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&db.MealEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("1 = 1").Delete(&db.FitnessDay{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("email <> ?", s.defaultEmail).Delete(&db.User{}).Error
	})
	if err != nil {
		return fmt.Errorf("clear fitness data: %w", err)
	}
	return nil
}

func normalizeRange(start, end string) (string, string, error) {
	var out [2]string
	for i, raw := range []string{start, end} {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		parsed, ok := fitness.ParseDate(trimmed)
		if !ok {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidDateRange, raw)
		}
		out[i] = fitness.FormatDate(parsed)
	}
	if out[0] != "" && out[1] != "" && out[1] < out[0] {
		return "", "", fmt.Errorf("%w: end %s is before start %s", ErrInvalidDateRange, out[1], out[0])
	}
	return out[0], out[1], nil
}

func applyRange(query *gorm.DB, start, end string) *gorm.DB {
	if start != "" {
		query = query.Where("date >= ?", start)
	}
	if end != "" {
		query = query.Where("date <= ?", end)
	}
	return query
}

func recordsFromRows(entries []db.MealEntry, days []db.FitnessDay) fitness.Records {
	records := fitness.Records{
		Meals:      make([]fitness.MealRecord, 0, len(entries)),
		Activities: make([]fitness.ActivityRecord, 0, len(days)),
		Water:      make([]fitness.WaterRecord, 0, len(days)),
	}
	for _, entry := range entries {
		records.Meals = append(records.Meals, fitness.MealRecord{
			Date:      entry.Date,
			Day:       entry.Day,
			Meal:      entry.Slot,
			Name:      entry.Name,
			BrandName: entry.Brand,
			Amount:    entry.Amount,
			Unit:      entry.Unit,
			Calories:  entry.Calories,
			Carbs:     entry.Carbs,
			Fat:       entry.Fat,
			Protein:   entry.Protein,
		})
	}
	for _, day := range days {
		records.Activities = append(records.Activities, fitness.ActivityRecord{
			Date:          day.Date,
			CaloriesOut:   day.CaloriesOut,
			Steps:         day.Steps,
			Distance:      day.Distance,
			ActiveMinutes: day.ActiveMinutes,
		})
		records.Water = append(records.Water, fitness.WaterRecord{Date: day.Date, Amount: day.Water})
	}
	return records
}
