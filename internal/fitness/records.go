package fitness

// RecordKind 区分导入记录的类别
type RecordKind string

const (
	// KindMeal 表示单条食物记录
	KindMeal RecordKind = "meal"
	// KindActivity 表示单日能量消耗记录
	KindActivity RecordKind = "activity"
	// KindWater 表示单日饮水记录
	KindWater RecordKind = "water"
)

// Label 返回用于错误信息的英文标签，例如 "Meal"
func (k RecordKind) Label() string {
	switch k {
	case KindMeal:
		return "Meal"
	case KindActivity:
		return "Activity"
	case KindWater:
		return "Water"
	default:
		return string(k)
	}
}

// 映射后的记录使用外部 JSON 的规范字段名，所有值在强制转换之前均为字符串。
// 源数据中缺失的字段映射为空字符串。

// MappedMeal 是规范化字段名后的食物记录
type MappedMeal struct {
	Date      string `json:"Date"`
	Day       string `json:"Day"`
	Meal      string `json:"Meal"`
	Name      string `json:"Name"`
	BrandName string `json:"BrandName"`
	Amount    string `json:"Amount"`
	Unit      string `json:"Unit"`
	Cals      string `json:"Cals"`
	Carbs     string `json:"Carbs"`
	Fat       string `json:"Fat"`
	Protein   string `json:"Protein"`
}

// MappedActivity 是规范化字段名后的活动记录；Steps/Distance/ActiveMinutes 仅在来源更丰富时出现
type MappedActivity struct {
	Date          string `json:"Date"`
	CalsOut       string `json:"Cals Out"`
	Steps         string `json:"Steps,omitempty"`
	Distance      string `json:"Distance,omitempty"`
	ActiveMinutes string `json:"Active Minutes,omitempty"`
}

// MappedWater 是规范化字段名后的饮水记录
type MappedWater struct {
	Date  string `json:"Date"`
	Water string `json:"Water"`
}

// MappedBatch 汇总一次导入中映射出的全部记录，保持输入顺序
type MappedBatch struct {
	Shape      Shape            `json:"shape"`
	Meals      []MappedMeal     `json:"meals"`
	Activities []MappedActivity `json:"activities"`
	Water      []MappedWater    `json:"water"`
}

// MealRecord 是强制转换后的单条食物记录
type MealRecord struct {
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Day       string  `json:"day"`
	Meal      string  `json:"meal"`
	Name      string  `json:"name"`
	BrandName string  `json:"brandName"`
	Amount    float64 `json:"amount" validate:"min=0"`
	Unit      string  `json:"unit"`
	Calories  float64 `json:"calories" validate:"min=0"`
	Carbs     float64 `json:"carbs" validate:"min=0"`
	Fat       float64 `json:"fat" validate:"min=0"`
	Protein   float64 `json:"protein" validate:"min=0"`
}

// ActivityRecord 是单日能量消耗汇总
type ActivityRecord struct {
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	CaloriesOut   float64 `json:"caloriesOut" validate:"min=0"`
	Steps         float64 `json:"steps" validate:"min=0"`
	Distance      float64 `json:"distance" validate:"min=0"`
	ActiveMinutes float64 `json:"activeMinutes" validate:"min=0"`
}

// WaterRecord 是单日饮水量，单位毫升
type WaterRecord struct {
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Amount float64 `json:"amount" validate:"min=0"`
}

// ProcessedDataset 是一次导入产出的完整规范数据集，调用方独占所有权
type ProcessedDataset struct {
	Meals           []MealRecord     `json:"meals"`
	Activities      []ActivityRecord `json:"activities"`
	Water           []WaterRecord    `json:"water"`
	DailyData       DailyData        `json:"dailyData"`
	WeeklySummaries []WeeklySummary  `json:"weeklySummaries"`
	Skipped         []Issue          `json:"skipped,omitempty"`
	Warnings        []string         `json:"warnings,omitempty"`
}
