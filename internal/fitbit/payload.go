package fitbit

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// DayPayload 将单日响应组装为营养日志中的一天：
// foods 与 goals 来自饮食日志，summary.water 优先取饮水接口，
// activity.summary 来自活动接口。summary 总是存在，以便结构识别。
func DayPayload(day Day) map[string]json.RawMessage {
	foods := json.RawMessage(`[]`)
	if value := gjson.GetBytes(day.FoodLog, "foods"); value.IsArray() {
		foods = json.RawMessage(value.Raw)
	}

	goals := json.RawMessage(`{}`)
	if value := gjson.GetBytes(day.FoodLog, "goals"); value.IsObject() {
		goals = json.RawMessage(value.Raw)
	}

	summary := json.RawMessage(`{}`)
	water := gjson.GetBytes(day.Water, "summary.water")
	if !water.Exists() || water.Type == gjson.Null {
		water = gjson.GetBytes(day.FoodLog, "summary.water")
	}
	if water.Exists() && water.Type != gjson.Null {
		summary = json.RawMessage(fmt.Sprintf(`{"water":%s}`, water.Raw))
	}

	payload := map[string]json.RawMessage{
		"foods":   foods,
		"goals":   goals,
		"summary": summary,
	}

	if activity := gjson.GetBytes(day.Activity, "summary"); activity.IsObject() {
		payload["activity"] = json.RawMessage(fmt.Sprintf(`{"summary":%s}`, activity.Raw))
	}

	return payload
}

// BuildNutritionLog 将多日响应编码为以日期为键的营养日志，键按日期升序
func BuildNutritionLog(days []Day) ([]byte, error) {
	log := make(map[string]map[string]json.RawMessage, len(days))
	for _, day := range days {
		log[day.Date] = DayPayload(day)
	}
	body, err := json.Marshal(log)
	if err != nil {
		return nil, fmt.Errorf("encode nutrition log: %w", err)
	}
	return body, nil
}
