package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/fitdash/internal/config"
	"github.com/fitdash/internal/db"
	"github.com/fitdash/internal/fitness"
	"github.com/fitdash/internal/logging"
	"github.com/fitdash/internal/service"
	"go.uber.org/zap"
)

type sampleMeal struct {
	Date      string `json:"Date"`
	Day       string `json:"Day"`
	Meal      string `json:"Meal"`
	BrandName string `json:"BrandName"`
	Amount    string `json:"Amount"`
	Unit      string `json:"Unit"`
	Cals      string `json:"Cals"`
	Carbs     string `json:"Carbs"`
	Fat       string `json:"Fat"`
	Protein   string `json:"Protein"`
}

type sampleActivity struct {
	Date    string `json:"Date"`
	CalsOut string `json:"Cals Out"`
	Steps   string `json:"Steps"`
}

type sampleWater struct {
	Date  string `json:"Date"`
	Water string `json:"Water"`
}

type samplePayload struct {
	Meals      []sampleMeal     `json:"meals"`
	Activities []sampleActivity `json:"activities"`
	Water      []sampleWater    `json:"water"`
}

type menuItem struct {
	slot    string
	name    string
	amount  string
	unit    string
	cals    int
	carbs   int
	fat     float64
	protein int
}

// 每天轮换的菜单
var sampleMenu = [][]menuItem{
	{
		{"Breakfast", "Quaker Oatmeal", "1", "cup", 170, 33, 2.5, 5},
		{"Lunch", "Subway Turkey Sandwich", "1", "sandwich", 350, 45, 9, 25},
		{"Dinner", "Homemade Pasta", "1", "serving", 450, 65, 12, 20},
		{"Snack", "Greek Yogurt", "1", "cup", 120, 13, 0, 12},
	},
	{
		{"Breakfast", "Nature Valley Granola Bar", "2", "bars", 190, 29, 7, 4},
		{"Lunch", "Chipotle Bowl", "1", "bowl", 700, 80, 25, 40},
		{"Dinner", "Grilled Salmon", "6", "oz", 350, 0, 18, 42},
	},
	{
		{"Breakfast", "Scrambled Eggs", "3", "eggs", 270, 3, 18, 20},
		{"Lunch", "Caesar Salad", "1", "bowl", 410, 18, 30, 16},
		{"Dinner", "Margherita Pizza", "3", "slices", 780, 90, 30, 33},
	},
	{
		{"Breakfast", "Avocado Toast", "2", "slices", 380, 40, 20, 10},
		{"Lunch", "Chicken Wrap", "1", "wrap", 490, 45, 18, 35},
		{"Snack", "Almonds", "1", "oz", 160, 6, 14, 6},
	},
	{
		{"Breakfast", "Blueberry Muffin", "1", "muffin", 420, 60, 17, 6},
		{"Lunch", "Tuna Poke Bowl", "1", "bowl", 560, 70, 12, 38},
		{"Dinner", "Beef Burrito", "1", "burrito", 690, 75, 26, 34},
	},
	{
		{"Breakfast", "Banana Pancakes", "3", "pancakes", 350, 55, 10, 10},
		{"Lunch", "Chipotle Salad", "1", "bowl", 520, 45, 22, 32},
		{"Dinner", "Homemade Stir Fry", "1", "plate", 450, 40, 15, 35},
	},
	{
		{"Breakfast", "Protein Smoothie", "1", "serving", 320, 45, 5, 25},
		{"Lunch", "Sweetgreen Salad", "1", "bowl", 480, 40, 25, 30},
		{"Dinner", "Homemade Tacos", "2", "tacos", 520, 45, 25, 30},
	},
}

var (
	sampleCaloriesOut = []int{2100, 2300, 2500, 1900, 2200, 2400, 2250}
	sampleSteps       = []int{8200, 10400, 12900, 5100, 9300, 11800, 9900}
	sampleWaterML     = []int{1500, 2000, 2500, 1800, 2200, 2400, 2000}
)

// 示例数据生成器：写入从 SAMPLE_START_DATE（默认上周日）开始的一周数据
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.GinMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	start, err := sampleStart(os.Getenv("SAMPLE_START_DATE"), time.Now())
	if err != nil {
		logger.Fatal("invalid SAMPLE_START_DATE", zap.Error(err))
	}

	store := service.NewFitnessStore(db.DB, cfg.DefaultUserEmail, logger)
	user, err := db.EnsureDefaultUser(db.DB, cfg.DefaultUserEmail, cfg.DefaultUserPassword)
	if err != nil {
		logger.Fatal("failed to ensure default user", zap.Error(err))
	}

	imports := service.NewImportService(store, nil, nil, nil, logger, service.ImportOptions{})
	outcome, err := seedSampleData(imports, user.ID, start)
	if err != nil {
		logger.Fatal("failed to seed sample data", zap.Error(err))
	}

	fmt.Printf("sample data imported for %s: %d days, %d meals (import %s)\n",
		user.Email, outcome.Saved.Days, outcome.Saved.Meals, outcome.ImportID)
}

// sampleStart 解析起始日期，为空时返回上一周的周日
func sampleStart(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return fitness.WeekStart(now).AddDate(0, 0, -7), nil
	}
	start, ok := fitness.ParseDate(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
	}
	return start, nil
}

func buildSamplePayload(start time.Time) ([]byte, error) {
	payload := samplePayload{}
	for i, items := range sampleMenu {
		day := start.AddDate(0, 0, i)
		date := fitness.FormatDate(day)
		weekday := day.Weekday().String()

		for _, item := range items {
			payload.Meals = append(payload.Meals, sampleMeal{
				Date:      date,
				Day:       weekday,
				Meal:      item.slot,
				BrandName: item.name,
				Amount:    item.amount,
				Unit:      item.unit,
				Cals:      strconv.Itoa(item.cals),
				Carbs:     strconv.Itoa(item.carbs),
				Fat:       strconv.FormatFloat(item.fat, 'f', -1, 64),
				Protein:   strconv.Itoa(item.protein),
			})
		}
		payload.Activities = append(payload.Activities, sampleActivity{
			Date:    date,
			CalsOut: strconv.Itoa(sampleCaloriesOut[i]),
			Steps:   strconv.Itoa(sampleSteps[i]),
		})
		payload.Water = append(payload.Water, sampleWater{
			Date:  date,
			Water: strconv.Itoa(sampleWaterML[i]),
		})
	}
	return json.Marshal(payload)
}

// seedSampleData 以 replace 模式写入，重复执行不会累加
func seedSampleData(imports *service.ImportService, userID uint, start time.Time) (service.ImportOutcome, error) {
	payload, err := buildSamplePayload(start)
	if err != nil {
		return service.ImportOutcome{}, err
	}

	outcome, err := imports.Import(service.ImportRequest{
		UserID:  userID,
		Payload: payload,
		Source:  "sample",
		Dedup:   service.SaveReplace,
	})
	if err != nil {
		return service.ImportOutcome{}, err
	}
	if !outcome.Success {
		return outcome, fmt.Errorf("sample payload rejected: %s", outcome.Message)
	}
	return outcome, nil
}
