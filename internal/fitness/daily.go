package fitness

import "sort"

// DailyAggregate 是按日期汇总的数据。
// 总量字段只能通过 AddMeal/AddActivity/AddWater 修改，以保证
// TotalCaloriesIn 等始终等于 Meals 中对应字段之和。
type DailyAggregate struct {
	Date            string       `json:"date"`
	Day             string       `json:"day"`
	Meals           []MealRecord `json:"meals"`
	TotalCaloriesIn float64      `json:"totalCaloriesIn"`
	TotalCarbs      float64      `json:"totalCarbs"`
	TotalFat        float64      `json:"totalFat"`
	TotalProtein    float64      `json:"totalProtein"`
	CaloriesOut     float64      `json:"caloriesOut"`
	WaterIntake     float64      `json:"waterIntake"`
	Steps           float64      `json:"steps"`
	Distance        float64      `json:"distance"`
	ActiveMinutes   float64      `json:"activeMinutes"`
}

// NewDailyAggregate 创建某日的空汇总，星期由日期推导
func NewDailyAggregate(date string) *DailyAggregate {
	return &DailyAggregate{
		Date:  date,
		Day:   WeekdayLabel(date),
		Meals: []MealRecord{},
	}
}

// AddMeal 追加一条食物记录并累加营养总量
func (d *DailyAggregate) AddMeal(meal MealRecord) {
	d.Meals = append(d.Meals, meal)
	d.TotalCaloriesIn += meal.Calories
	d.TotalCarbs += meal.Carbs
	d.TotalFat += meal.Fat
	d.TotalProtein += meal.Protein
}

// AddActivity 累加活动数据；同一天的多条记录相加而不是覆盖
func (d *DailyAggregate) AddActivity(activity ActivityRecord) {
	d.CaloriesOut += activity.CaloriesOut
	d.Steps += activity.Steps
	d.Distance += activity.Distance
	d.ActiveMinutes += activity.ActiveMinutes
}

// AddWater 累加饮水量
func (d *DailyAggregate) AddWater(water WaterRecord) {
	d.WaterIntake += water.Amount
}

// Clone 返回深拷贝
func (d *DailyAggregate) Clone() *DailyAggregate {
	clone := *d
	clone.Meals = append([]MealRecord{}, d.Meals...)
	return &clone
}

// DailyData 是日期到汇总的映射
type DailyData map[string]*DailyAggregate

// Dates 返回升序排列的日期
func (d DailyData) Dates() []string {
	dates := make([]string, 0, len(d))
	for date := range d {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

func (d DailyData) ensure(date string) *DailyAggregate {
	if agg, ok := d[date]; ok {
		return agg
	}
	agg := NewDailyAggregate(date)
	d[date] = agg
	return agg
}

// AggregateDaily 按输入顺序折叠记录，为首次出现的日期惰性创建汇总。
// 食物列表保持输入顺序，不做排序。
func AggregateDaily(records Records) DailyData {
	daily := make(DailyData)

	for _, meal := range records.Meals {
		daily.ensure(meal.Date).AddMeal(meal)
	}
	for _, activity := range records.Activities {
		daily.ensure(activity.Date).AddActivity(activity)
	}
	for _, water := range records.Water {
		daily.ensure(water.Date).AddWater(water)
	}

	return daily
}

// MergeDaily 将 src 累加进 dst 的副本并返回新映射，两个输入均不被修改。
// 对同一数据重复合并会使总量翻倍，导入不具备幂等性。
func MergeDaily(dst, src DailyData) DailyData {
	merged := make(DailyData, len(dst)+len(src))
	for date, agg := range dst {
		merged[date] = agg.Clone()
	}

	for _, date := range src.Dates() {
		incoming := src[date]
		target := merged.ensure(date)
		for _, meal := range incoming.Meals {
			target.AddMeal(meal)
		}
		target.AddActivity(ActivityRecord{
			Date:          date,
			CaloriesOut:   incoming.CaloriesOut,
			Steps:         incoming.Steps,
			Distance:      incoming.Distance,
			ActiveMinutes: incoming.ActiveMinutes,
		})
		target.AddWater(WaterRecord{Date: date, Amount: incoming.WaterIntake})
	}

	return merged
}
