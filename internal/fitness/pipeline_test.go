package fitness

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)

func newTestPipeline(opts ...Option) *Pipeline {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewPipeline(opts...)
}

const scenarioFlat = `{
	"meals": [{"Date":"2023-06-01","Day":"Thursday","Meal":"Breakfast","Cals":"170","Carbs":"33","Fat":"2.5","Protein":"5"}],
	"activities": [{"Date":"2023-06-01","Cals Out":"2100"}],
	"water": [{"Date":"2023-06-01","Water":"1500"}]
}`

func TestProcessFlatScenario(t *testing.T) {
	dataset, err := newTestPipeline().Process([]byte(scenarioFlat))
	require.NoError(t, err)

	day, ok := dataset.DailyData["2023-06-01"]
	require.True(t, ok, "expected aggregate for 2023-06-01")
	assert.Equal(t, 170.0, day.TotalCaloriesIn)
	assert.Equal(t, 33.0, day.TotalCarbs)
	assert.Equal(t, 2.5, day.TotalFat)
	assert.Equal(t, 5.0, day.TotalProtein)
	assert.Equal(t, 2100.0, day.CaloriesOut)
	assert.Equal(t, 1500.0, day.WaterIntake)
	assert.Equal(t, "Thursday", day.Day)

	require.Len(t, dataset.WeeklySummaries, 1)
	week := dataset.WeeklySummaries[0]
	assert.Equal(t, "2023-05-28", week.StartDate)
	assert.Equal(t, "2023-06-03", week.EndDate)
	assert.Equal(t, 1, week.DayCount)
	assert.Equal(t, 170.0, week.AverageCaloriesIn)
}

func TestProcessNutritionLogScenario(t *testing.T) {
	raw := `{"2023-06-01": {
		"foods": [{"loggedFood":{"name":"X","amount":200,"unit":{"name":"gram"}},"nutritionalValues":{"calories":144,"carbs":13.2,"fat":0.4,"protein":20}}],
		"summary": {"water": 1500},
		"goals": {"estimatedCaloriesOut": 2200}
	}}`

	mapped, err := MapPayload(DetectPayload([]byte(raw)))
	require.NoError(t, err)
	assert.Equal(t, ShapeNutritionLog, mapped.Shape)

	require.Len(t, mapped.Meals, 1)
	meal := mapped.Meals[0]
	assert.Equal(t, "X", meal.Name)
	assert.Equal(t, "144", meal.Cals)
	assert.Equal(t, "13.2", meal.Carbs)
	assert.Equal(t, "200", meal.Amount)
	assert.Equal(t, "gram", meal.Unit)
	assert.Equal(t, "Thursday", meal.Day)
	assert.Equal(t, "Snack", meal.Meal)

	require.Len(t, mapped.Activities, 1)
	assert.Equal(t, "2200", mapped.Activities[0].CalsOut)
	require.Len(t, mapped.Water, 1)
	assert.Equal(t, "1500", mapped.Water[0].Water)

	dataset, err := newTestPipeline().Process([]byte(raw))
	require.NoError(t, err)
	day := dataset.DailyData["2023-06-01"]
	require.NotNil(t, day)
	assert.Equal(t, 144.0, day.TotalCaloriesIn)
	assert.Equal(t, 2200.0, day.CaloriesOut)
	assert.Equal(t, 1500.0, day.WaterIntake)
}

func mealsPayload(meals []map[string]any) []byte {
	body, _ := json.Marshal(map[string]any{"meals": meals})
	return body
}

func sampleMeal(date string, cals any) map[string]any {
	return map[string]any{"Date": date, "Day": "Thursday", "Meal": "Lunch", "Name": "Rice", "Cals": cals}
}

func TestProcessFailsFastOnMissingCalories(t *testing.T) {
	meals := make([]map[string]any, 5)
	for i := range meals {
		meals[i] = sampleMeal("2023-06-01", "100")
	}
	delete(meals[2], "Cals")

	dataset, err := newTestPipeline().Process(mealsPayload(meals))
	require.Error(t, err)
	assert.Nil(t, dataset)
	assert.True(t, errors.Is(err, ErrValidation))

	var importErr *ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, 3, importErr.Index)
	assert.Equal(t, "Cals", importErr.Field)
	assert.Contains(t, importErr.Message, "#3")
	assert.Contains(t, importErr.Message, "Cals")

	result := newTestPipeline().ProcessImport(mealsPayload(meals))
	assert.False(t, result.Success)
	assert.Nil(t, result.Dataset)
	assert.Equal(t, 3, result.FailingIndex)
	assert.Equal(t, "Cals", result.FailingField)
}

func TestProcessFailFastReportsFirstOffender(t *testing.T) {
	for k := 1; k <= 4; k++ {
		t.Run(fmt.Sprintf("index-%d", k), func(t *testing.T) {
			meals := make([]map[string]any, 4)
			for i := range meals {
				meals[i] = sampleMeal("2023-06-01", "100")
			}
			meals[k-1]["Cals"] = ""
			if k < 4 {
				delete(meals[3], "Meal")
			}

			result := newTestPipeline().ProcessImport(mealsPayload(meals))
			require.False(t, result.Success)
			assert.Equal(t, k, result.FailingIndex)
			assert.Equal(t, "Cals", result.FailingField)
		})
	}
}

func TestProcessSkipInvalidMode(t *testing.T) {
	meals := []map[string]any{
		sampleMeal("2023-06-01", "100"),
		{"Date": "2023-06-01", "Day": "Thursday", "Cals": "50"},
		sampleMeal("2023-06-01", "200"),
	}

	dataset, err := newTestPipeline(WithValidationMode(SkipInvalid)).Process(mealsPayload(meals))
	require.NoError(t, err)
	require.Len(t, dataset.Meals, 2)
	require.Len(t, dataset.Skipped, 1)
	assert.Equal(t, 2, dataset.Skipped[0].Index)
	assert.Equal(t, "Meal", dataset.Skipped[0].Field)
	assert.Equal(t, 300.0, dataset.DailyData["2023-06-01"].TotalCaloriesIn)
}

func TestProcessCoercionFallback(t *testing.T) {
	meals := []map[string]any{sampleMeal("2023-06-01", "abc")}
	meals[0]["Protein"] = "-12"
	meals[0]["Fat"] = nil

	dataset, err := newTestPipeline().Process(mealsPayload(meals))
	require.NoError(t, err)
	require.Len(t, dataset.Meals, 1)
	assert.Equal(t, 0.0, dataset.Meals[0].Calories)
	assert.Equal(t, 0.0, dataset.Meals[0].Protein, "negative values are clamped")
	assert.Equal(t, 0.0, dataset.Meals[0].Fat)
}

func TestProcessNumericCellsAcceptNumbers(t *testing.T) {
	dataset, err := newTestPipeline().Process(mealsPayload([]map[string]any{sampleMeal("2023-06-01", 250.5)}))
	require.NoError(t, err)
	assert.Equal(t, 250.5, dataset.Meals[0].Calories)
}

func TestProcessShapeErrors(t *testing.T) {
	cases := map[string]string{
		"invalid json":         `{"meals": [`,
		"top-level array":      `[{"Date":"2023-06-01"}]`,
		"no meals":             `{"activities": []}`,
		"meals not array":      `{"meals": {"Date": "2023-06-01"}}`,
		"activities not array": `{"meals": [], "activities": "nope"}`,
		"nutrition no foods":   `{"2023-06-01": {"summary": {"water": 10}}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			dataset, err := newTestPipeline().Process([]byte(raw))
			require.Error(t, err)
			assert.Nil(t, dataset)
			assert.True(t, errors.Is(err, ErrShape), "expected shape error, got %v", err)
		})
	}
}

func TestProcessEmptyMealsIsValid(t *testing.T) {
	dataset, err := newTestPipeline().Process([]byte(`{"meals": [], "water": [{"Date":"2023-06-04","Water":"300"}]}`))
	require.NoError(t, err)
	assert.Empty(t, dataset.Meals)
	require.Contains(t, dataset.DailyData, "2023-06-04")
	assert.Equal(t, 300.0, dataset.DailyData["2023-06-04"].WaterIntake)
	require.Len(t, dataset.WeeklySummaries, 1)
	assert.Equal(t, "2023-06-04", dataset.WeeklySummaries[0].StartDate)
}

func TestProcessDateFallbackUsesClock(t *testing.T) {
	meals := []map[string]any{sampleMeal("sometime last week", "90")}

	dataset, err := newTestPipeline().Process(mealsPayload(meals))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", dataset.Meals[0].Date)
	require.NotEmpty(t, dataset.Warnings)
	assert.Contains(t, dataset.Warnings[0], "sometime last week")
}

func TestProcessStrictDatesRejectsUnparseable(t *testing.T) {
	meals := []map[string]any{sampleMeal("2023-06-01", "90"), sampleMeal("31/31/2023", "90")}

	result := newTestPipeline(WithStrictDates(true)).ProcessImport(mealsPayload(meals))
	require.False(t, result.Success)
	assert.Equal(t, 2, result.FailingIndex)
	assert.Equal(t, "Date", result.FailingField)
}

func TestProcessNormalizesDateFormats(t *testing.T) {
	meals := []map[string]any{
		sampleMeal("2023-06-01T08:30:00Z", "1"),
		sampleMeal("06/01/2023", "2"),
		sampleMeal("Jun 1, 2023", "3"),
	}

	dataset, err := newTestPipeline().Process(mealsPayload(meals))
	require.NoError(t, err)
	require.Len(t, dataset.DailyData, 1)
	day := dataset.DailyData["2023-06-01"]
	require.NotNil(t, day)
	assert.Equal(t, 6.0, day.TotalCaloriesIn)
}

func TestProcessSumInvariantHoldsForEveryDay(t *testing.T) {
	var meals []map[string]any
	for i := 0; i < 40; i++ {
		date := time.Date(2023, 5, 20, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i%13).Format(DateLayout)
		meal := sampleMeal(date, fmt.Sprintf("%d.%d", 50+i, i%10))
		meal["Carbs"] = fmt.Sprintf("%d", i)
		meal["Fat"] = i % 7
		meal["Protein"] = "x"
		meals = append(meals, meal)
	}

	dataset, err := newTestPipeline().Process(mealsPayload(meals))
	require.NoError(t, err)

	for date, day := range dataset.DailyData {
		var cals, carbs, fat, protein float64
		for _, meal := range day.Meals {
			cals += meal.Calories
			carbs += meal.Carbs
			fat += meal.Fat
			protein += meal.Protein
		}
		assert.InDelta(t, cals, day.TotalCaloriesIn, 1e-9, date)
		assert.InDelta(t, carbs, day.TotalCarbs, 1e-9, date)
		assert.InDelta(t, fat, day.TotalFat, 1e-9, date)
		assert.InDelta(t, protein, day.TotalProtein, 1e-9, date)
	}

	for _, week := range dataset.WeeklySummaries {
		start, ok := ParseCanonicalDate(week.StartDate)
		require.True(t, ok)
		assert.Equal(t, time.Sunday, start.Weekday(), week.StartDate)
		divisor := float64(max(1, week.DayCount))
		assert.InDelta(t, week.TotalCaloriesIn/divisor, week.AverageCaloriesIn, 1e-9)
		assert.InDelta(t, week.TotalWaterIntake/divisor, week.AverageWaterIntake, 1e-9)
	}
}

func TestProcessMealOrderFollowsInput(t *testing.T) {
	meals := []map[string]any{sampleMeal("2023-06-01", "1"), sampleMeal("2023-06-01", "2"), sampleMeal("2023-06-01", "3")}
	meals[0]["Name"] = "c"
	meals[1]["Name"] = "a"
	meals[2]["Name"] = "b"

	dataset, err := newTestPipeline().Process(mealsPayload(meals))
	require.NoError(t, err)

	names := make([]string, 0, 3)
	for _, meal := range dataset.DailyData["2023-06-01"].Meals {
		names = append(names, meal.Name)
	}
	assert.Equal(t, "c,a,b", strings.Join(names, ","))
}

func TestRepeatedImportIsNotIdempotent(t *testing.T) {
	pipeline := newTestPipeline()

	first, err := pipeline.Process([]byte(scenarioFlat))
	require.NoError(t, err)
	second, err := pipeline.Process([]byte(scenarioFlat))
	require.NoError(t, err)

	merged := MergeDaily(first.DailyData, second.DailyData)
	day := merged["2023-06-01"]
	require.NotNil(t, day)
	assert.Equal(t, 340.0, day.TotalCaloriesIn, "re-importing the same data doubles the totals")
	assert.Equal(t, 4200.0, day.CaloriesOut)
	assert.Equal(t, 3000.0, day.WaterIntake)
	assert.Len(t, day.Meals, 2)

	assert.Equal(t, 170.0, first.DailyData["2023-06-01"].TotalCaloriesIn, "inputs to MergeDaily are untouched")
}

func TestDuplicateActivityRecordsAccumulate(t *testing.T) {
	raw := `{"meals": [], "activities": [{"Date":"2023-06-01","Cals Out":"1000"},{"Date":"2023-06-01","Cals Out":"500"}]}`

	dataset, err := newTestPipeline().Process([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 1500.0, dataset.DailyData["2023-06-01"].CaloriesOut)
}

func TestProcessCallsAreIndependent(t *testing.T) {
	pipeline := newTestPipeline()

	first, err := pipeline.Process([]byte(scenarioFlat))
	require.NoError(t, err)
	first.DailyData["2023-06-01"].AddMeal(MealRecord{Date: "2023-06-01", Calories: 999})

	second, err := pipeline.Process([]byte(scenarioFlat))
	require.NoError(t, err)
	assert.Equal(t, 170.0, second.DailyData["2023-06-01"].TotalCaloriesIn)
}
