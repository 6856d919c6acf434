package fitness

import (
	"fmt"
	"strings"
)

// ValidationMode 控制遇到不合法记录时的处理策略
type ValidationMode string

const (
	// FailFast 在第一条不合法记录处使整批导入失败
	FailFast ValidationMode = "fail_fast"
	// SkipInvalid 跳过不合法记录并在结果中报告
	SkipInvalid ValidationMode = "skip_invalid"
)

// ParseValidationMode 解析模式名称，未知值回退为 FailFast
func ParseValidationMode(raw string) ValidationMode {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case string(SkipInvalid), "skip", "best_effort":
		return SkipInvalid
	default:
		return FailFast
	}
}

// Issue 描述一条被跳过的记录，Index 从 1 开始
type Issue struct {
	Record  RecordKind `json:"record"`
	Index   int        `json:"index"`
	Field   string     `json:"field"`
	Message string     `json:"message"`
}

// ValidateOptions 配置校验行为
type ValidateOptions struct {
	Mode        ValidationMode
	StrictDates bool
}

var (
	requiredMealFields     = []string{"Date", "Day", "Meal", "Cals"}
	requiredActivityFields = []string{"Date", "Cals Out"}
	requiredWaterFields    = []string{"Date", "Water"}
)

// Validate 检查每条记录的必需字段。按 meals、activities、water 的顺序逐条检查，
// FailFast 模式下返回第一条失败；SkipInvalid 模式下返回剔除后的新批次及问题列表。
// 输入批次不会被修改。
func Validate(batch *MappedBatch, opts ValidateOptions) (*MappedBatch, []Issue, error) {
	if batch == nil {
		return nil, nil, newShapeError("empty import payload")
	}

	out := &MappedBatch{
		Shape:      batch.Shape,
		Meals:      make([]MappedMeal, 0, len(batch.Meals)),
		Activities: make([]MappedActivity, 0, len(batch.Activities)),
		Water:      make([]MappedWater, 0, len(batch.Water)),
	}
	var issues []Issue

	reject := func(err *ImportError) error {
		if opts.Mode != SkipInvalid {
			return err
		}
		issues = append(issues, Issue{Record: err.Record, Index: err.Index, Field: err.Field, Message: err.Message})
		return nil
	}

	for i, meal := range batch.Meals {
		values := map[string]string{"Date": meal.Date, "Day": meal.Day, "Meal": meal.Meal, "Cals": meal.Cals}
		if err := checkRecord(KindMeal, i+1, requiredMealFields, values, opts.StrictDates); err != nil {
			if rejectErr := reject(err); rejectErr != nil {
				return nil, nil, rejectErr
			}
			continue
		}
		out.Meals = append(out.Meals, meal)
	}

	for i, activity := range batch.Activities {
		values := map[string]string{"Date": activity.Date, "Cals Out": activity.CalsOut}
		if err := checkRecord(KindActivity, i+1, requiredActivityFields, values, opts.StrictDates); err != nil {
			if rejectErr := reject(err); rejectErr != nil {
				return nil, nil, rejectErr
			}
			continue
		}
		out.Activities = append(out.Activities, activity)
	}

	for i, water := range batch.Water {
		values := map[string]string{"Date": water.Date, "Water": water.Water}
		if err := checkRecord(KindWater, i+1, requiredWaterFields, values, opts.StrictDates); err != nil {
			if rejectErr := reject(err); rejectErr != nil {
				return nil, nil, rejectErr
			}
			continue
		}
		out.Water = append(out.Water, water)
	}

	return out, issues, nil
}

func checkRecord(kind RecordKind, index int, required []string, values map[string]string, strictDates bool) *ImportError {
	for _, field := range required {
		if strings.TrimSpace(values[field]) == "" {
			return newMissingFieldError(kind, index, field)
		}
	}
	if strictDates {
		if _, ok := ParseDate(values["Date"]); !ok {
			return newInvalidDateError(kind, index, values["Date"])
		}
	}
	return nil
}

// summarizeIssues 生成跳过记录的简短说明
func summarizeIssues(issues []Issue) string {
	if len(issues) == 0 {
		return ""
	}
	return fmt.Sprintf("skipped %d invalid record(s); first: %s", len(issues), issues[0].Message)
}
