package fitness

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Shape 标识导入数据的顶层结构
type Shape string

const (
	// ShapeFlat 为包含 meals/activities/water 数组的扁平结构
	ShapeFlat Shape = "flat"
	// ShapeNutritionLog 为按日期分组的营养日志结构
	ShapeNutritionLog Shape = "nutrition-log"
	// ShapeUnrecognized 表示无法识别的结构
	ShapeUnrecognized Shape = "unrecognized"
)

// Payload 是已识别的输入变体，只能是 FlatPayload、NutritionLogPayload 或 UnrecognizedPayload 之一
type Payload interface {
	Shape() Shape
}

// FlatPayload 持有扁平结构的三个记录数组
type FlatPayload struct {
	Meals      []gjson.Result
	Activities []gjson.Result
	Water      []gjson.Result
}

// Shape implements Payload.
func (FlatPayload) Shape() Shape { return ShapeFlat }

// NutritionDay 是营养日志中的单日对象
type NutritionDay struct {
	Date string
	Body gjson.Result
}

// NutritionLogPayload 按文档顺序持有每日对象
type NutritionLogPayload struct {
	Days []NutritionDay
}

// Shape implements Payload.
func (NutritionLogPayload) Shape() Shape { return ShapeNutritionLog }

// UnrecognizedPayload 记录无法识别的原因
type UnrecognizedPayload struct {
	Reason string
}

// Shape implements Payload.
func (UnrecognizedPayload) Shape() Shape { return ShapeUnrecognized }

// DetectPayload 根据顶层结构判别输入变体。
// 顶层为对象且没有 meals，并且第一个键的值包含 foods 或 summary 时视为营养日志；
// 其余情况都视为扁平结构，并要求 meals 为数组。
func DetectPayload(raw []byte) Payload {
	if !gjson.ValidBytes(raw) {
		return UnrecognizedPayload{Reason: "invalid JSON payload"}
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return UnrecognizedPayload{Reason: "Missing required array: meals"}
	}

	fields := objectFields(root)
	meals, hasMeals := fields["meals"]
	if !hasMeals || isFalsy(meals) {
		if first, ok := firstValue(root); ok && first.IsObject() &&
			(first.Get("foods").Exists() || first.Get("summary").Exists()) {
			return nutritionPayload(root)
		}
	}

	if !meals.IsArray() {
		return UnrecognizedPayload{Reason: "Missing required array: meals"}
	}

	payload := FlatPayload{Meals: meals.Array()}

	if activities, ok := fields["activities"]; ok && !isFalsy(activities) {
		if !activities.IsArray() {
			return UnrecognizedPayload{Reason: "If provided, 'activities' must be an array."}
		}
		payload.Activities = activities.Array()
	}

	if water, ok := fields["water"]; ok && !isFalsy(water) {
		if !water.IsArray() {
			return UnrecognizedPayload{Reason: "If provided, 'water' must be an array."}
		}
		payload.Water = water.Array()
	}

	return payload
}

func nutritionPayload(root gjson.Result) NutritionLogPayload {
	var payload NutritionLogPayload
	root.ForEach(func(key, value gjson.Result) bool {
		payload.Days = append(payload.Days, NutritionDay{Date: key.String(), Body: value})
		return true
	})
	return payload
}

// MapPayload 将已识别的输入变体映射为规范字段名的记录集合
func MapPayload(payload Payload) (*MappedBatch, error) {
	switch p := payload.(type) {
	case FlatPayload:
		return mapFlat(p), nil
	case NutritionLogPayload:
		return mapNutritionLog(p)
	case UnrecognizedPayload:
		return nil, newShapeError(p.Reason)
	default:
		return nil, newShapeError(fmt.Sprintf("unsupported payload type %T", payload))
	}
}

// MapRecord 映射单条扁平结构记录，返回 MappedMeal、MappedActivity 或 MappedWater
func MapRecord(kind RecordKind, raw gjson.Result) (any, error) {
	switch kind {
	case KindMeal:
		return mapFlatMeal(raw), nil
	case KindActivity:
		return mapFlatActivity(raw), nil
	case KindWater:
		return mapFlatWater(raw), nil
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

func mapFlat(p FlatPayload) *MappedBatch {
	batch := &MappedBatch{
		Shape:      ShapeFlat,
		Meals:      make([]MappedMeal, 0, len(p.Meals)),
		Activities: make([]MappedActivity, 0, len(p.Activities)),
		Water:      make([]MappedWater, 0, len(p.Water)),
	}
	for _, item := range p.Meals {
		batch.Meals = append(batch.Meals, mapFlatMeal(item))
	}
	for _, item := range p.Activities {
		batch.Activities = append(batch.Activities, mapFlatActivity(item))
	}
	for _, item := range p.Water {
		batch.Water = append(batch.Water, mapFlatWater(item))
	}
	return batch
}

func mapFlatMeal(raw gjson.Result) MappedMeal {
	f := objectFields(raw)
	return MappedMeal{
		Date:      text(f["Date"]),
		Day:       text(f["Day"]),
		Meal:      text(f["Meal"]),
		Name:      text(f["Name"]),
		BrandName: firstText(f["BrandName"], f["brandName"]),
		Amount:    text(f["Amount"]),
		Unit:      text(f["Unit"]),
		Cals:      text(f["Cals"]),
		Carbs:     text(f["Carbs"]),
		Fat:       text(f["Fat"]),
		Protein:   text(f["Protein"]),
	}
}

func mapFlatActivity(raw gjson.Result) MappedActivity {
	f := objectFields(raw)
	mapped := MappedActivity{
		Date:          firstText(f["Date"], f["date"]),
		CalsOut:       text(f["Cals Out"]),
		Steps:         text(f["Steps"]),
		Distance:      text(f["Distance"]),
		ActiveMinutes: text(f["Active Minutes"]),
	}

	// Fitbit 活动接口返回的 summary 结构
	if summary, ok := f["summary"]; ok && summary.IsObject() {
		applyActivitySummary(&mapped, summary)
	}
	return mapped
}

func mapFlatWater(raw gjson.Result) MappedWater {
	f := objectFields(raw)
	return MappedWater{
		Date:  text(f["Date"]),
		Water: text(f["Water"]),
	}
}

func applyActivitySummary(mapped *MappedActivity, summary gjson.Result) {
	if mapped.CalsOut == "" {
		mapped.CalsOut = text(summary.Get("caloriesOut"))
	}
	if mapped.Steps == "" {
		mapped.Steps = text(summary.Get("steps"))
	}
	if mapped.Distance == "" {
		mapped.Distance = summaryDistance(summary.Get("distances"))
	}
	if mapped.ActiveMinutes == "" {
		mapped.ActiveMinutes = text(summary.Get("veryActiveMinutes"))
	}
}

// summaryDistance 优先取 activity=total 的距离，否则取第一项
func summaryDistance(distances gjson.Result) string {
	if !distances.IsArray() {
		return ""
	}
	items := distances.Array()
	if len(items) == 0 {
		return ""
	}
	for _, item := range items {
		if strings.EqualFold(item.Get("activity").String(), "total") {
			return text(item.Get("distance"))
		}
	}
	return text(items[0].Get("distance"))
}

func mapNutritionLog(p NutritionLogPayload) (*MappedBatch, error) {
	batch := &MappedBatch{Shape: ShapeNutritionLog}

	for _, day := range p.Days {
		body := day.Body
		if !body.IsObject() {
			continue
		}

		if foods := body.Get("foods"); foods.IsArray() {
			for idx, food := range foods.Array() {
				if meal, ok := mapNutritionFood(day.Date, idx, food); ok {
					batch.Meals = append(batch.Meals, meal)
				}
			}
		}

		if activity, ok := mapNutritionActivity(day.Date, body); ok {
			batch.Activities = append(batch.Activities, activity)
		}

		if water := body.Get("summary.water"); water.Exists() && water.Type != gjson.Null {
			batch.Water = append(batch.Water, MappedWater{Date: day.Date, Water: text(water)})
		}
	}

	if len(batch.Meals) == 0 {
		return nil, newShapeError("No valid meal data found in the nutrition format")
	}

	return batch, nil
}

func mapNutritionFood(dateKey string, idx int, food gjson.Result) (MappedMeal, bool) {
	values := food.Get("nutritionalValues")
	if !values.IsObject() {
		return MappedMeal{}, false
	}
	logged := food.Get("loggedFood")

	date := firstText(food.Get("logDate"))
	if date == "" {
		date = dateKey
	}

	day := WeekdayLabel(date)
	if day == "" {
		day = "Unknown"
	}

	name := firstText(logged.Get("name"), food.Get("description"))
	if name == "" {
		name = fmt.Sprintf("Food item %d", idx+1)
	}

	unit := logged.Get("unit")
	unitName := text(unit)
	if unit.IsObject() {
		unitName = text(unit.Get("name"))
	}

	return MappedMeal{
		Date:      date,
		Day:       day,
		Meal:      mealSlot(logged.Get("mealTypeId")),
		Name:      name,
		BrandName: text(logged.Get("brand")),
		Amount:    withDefault(text(logged.Get("amount")), "1"),
		Unit:      withDefault(unitName, "serving"),
		Cals:      withDefault(firstText(values.Get("calories"), logged.Get("calories")), "0"),
		Carbs:     withDefault(text(values.Get("carbs")), "0"),
		Fat:       withDefault(text(values.Get("fat")), "0"),
		Protein:   withDefault(text(values.Get("protein")), "0"),
	}, true
}

func mapNutritionActivity(date string, body gjson.Result) (MappedActivity, bool) {
	// Fitbit 客户端附带的活动汇总优先于 goals.estimatedCaloriesOut
	if summary := body.Get("activity.summary"); summary.IsObject() {
		mapped := MappedActivity{Date: date}
		applyActivitySummary(&mapped, summary)
		return mapped, true
	}

	estimated := body.Get("goals.estimatedCaloriesOut")
	if isFalsy(estimated) {
		return MappedActivity{}, false
	}
	return MappedActivity{Date: date, CalsOut: text(estimated)}, true
}

// Fitbit mealTypeId: 1 早餐, 3 午餐, 5 晚餐, 其余均为加餐
var mealSlotsByType = map[int64]string{
	1: "Breakfast",
	2: "Snack",
	3: "Lunch",
	4: "Snack",
	5: "Dinner",
	6: "Snack",
	7: "Snack",
}

func mealSlot(typeID gjson.Result) string {
	if slot, ok := mealSlotsByType[typeID.Int()]; ok {
		return slot
	}
	return "Snack"
}

func objectFields(obj gjson.Result) map[string]gjson.Result {
	fields := make(map[string]gjson.Result)
	if !obj.IsObject() {
		return fields
	}
	obj.ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = value
		return true
	})
	return fields
}

func firstValue(obj gjson.Result) (gjson.Result, bool) {
	var (
		first gjson.Result
		found bool
	)
	obj.ForEach(func(_, value gjson.Result) bool {
		first = value
		found = true
		return false
	})
	return first, found
}

// text 将任意 JSON 值转为字符串，缺失或 null 为空字符串
func text(value gjson.Result) string {
	switch value.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return strings.TrimSpace(value.Str)
	case gjson.Number:
		return value.Raw
	default:
		return strings.TrimSpace(value.String())
	}
}

func firstText(values ...gjson.Result) string {
	for _, value := range values {
		if s := text(value); s != "" {
			return s
		}
	}
	return ""
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func isFalsy(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.String:
		return value.Str == ""
	case gjson.Number:
		return value.Num == 0
	default:
		return !value.Exists()
	}
}
